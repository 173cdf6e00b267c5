// Package domain holds the entities persisted and exchanged by the sync pipeline.
package domain

import "time"

// Photo is a persisted photo entry from the remote listing.
// At most one Photo exists per ID; fields are never updated once written.
type Photo struct {
	ID        string    `json:"id" yaml:"id"`                 // Remote identifier, stable across syncs
	Title     string    `json:"title" yaml:"title"`           // May be empty
	DateTaken time.Time `json:"date_taken" yaml:"date_taken"` // Parsed from the listing's datetaken
	RemoteURL string    `json:"remote_url" yaml:"remote_url"` // Absolute image URL
	CreatedAt time.Time `json:"created_at" yaml:"created_at"` // When this client first stored the photo
}

// Handle returns the context-independent reference for this photo.
func (p *Photo) Handle() Handle {
	return Handle{PhotoID: p.ID}
}

// PhotoDescriptor is a parsed listing record that has not been persisted yet.
type PhotoDescriptor struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	Title     string    `json:"title" yaml:"title"`
	DateTaken time.Time `json:"date_taken" yaml:"date_taken" validate:"required"`
	RemoteURL string    `json:"remote_url" yaml:"remote_url" validate:"required,http_url"`
}

// Handle is a stable reference to a persisted photo. It carries no entity state,
// so it is safe to pass from the write lane to any reader, which re-materializes
// the photo with Resolve.
type Handle struct {
	PhotoID string `json:"photo_id" yaml:"photo_id"`
}
