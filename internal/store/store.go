// Package store defines the persistence interfaces for photos and tags.
package store

import (
	"context"

	"github.com/photoramax/photorama/internal/domain"
)

// PhotoRepository persists photos and their tag associations.
//
// Mutations run on a single serialized write lane and are committed before they
// return. Reads run on a separate read view that only observes committed data.
type PhotoRepository interface {
	// Upsert inserts descriptors whose identifier is not stored yet, in one
	// transaction. Existing photos are left untouched. It returns one handle per
	// distinct identifier in first-seen order.
	Upsert(ctx context.Context, descriptors []domain.PhotoDescriptor) ([]domain.Handle, error)

	// Resolve re-materializes photos on the read view, in handle order.
	// Handles without a stored photo are skipped.
	Resolve(ctx context.Context, handles []domain.Handle) ([]*domain.Photo, error)

	// FetchAll returns every stored photo ordered by date taken, oldest first.
	FetchAll(ctx context.Context) ([]*domain.Photo, error)

	// GetPhoto returns a single photo or a not found error.
	GetPhoto(ctx context.Context, photoID string) (*domain.Photo, error)

	AddTag(ctx context.Context, photoID, tagID string) error
	RemoveTag(ctx context.Context, photoID, tagID string) error
	TagsForPhoto(ctx context.Context, photoID string) ([]*domain.Tag, error)
}

// TagRepository persists user-created tags.
type TagRepository interface {
	// FetchAllTags returns every tag ordered by name.
	FetchAllTags(ctx context.Context) ([]*domain.Tag, error)

	// CreateTag stores a new tag. Names are trimmed and must not be empty.
	CreateTag(ctx context.Context, name string) (*domain.Tag, error)

	// GetTag returns a single tag or a not found error.
	GetTag(ctx context.Context, tagID string) (*domain.Tag, error)
}
