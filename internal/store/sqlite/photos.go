package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/photoramax/photorama/internal/domain"
	domainerrors "github.com/photoramax/photorama/internal/errors"
)

const tablePhotos = "photos"

// photoColumns must match the db tags of photoRow.
var photoColumns = []string{"photo_id", "title", "date_taken", "remote_url", "created_at"}

// resolveChunk keeps IN lists well below SQLite's bound-variable limit.
const resolveChunk = 500

type photoRow struct {
	PhotoID   string `db:"photo_id"`
	Title     string `db:"title"`
	DateTaken string `db:"date_taken"`
	RemoteURL string `db:"remote_url"`
	CreatedAt string `db:"created_at"`
}

func (r *photoRow) toDomain() (*domain.Photo, error) {
	taken, err := parseTime(r.DateTaken)
	if err != nil {
		return nil, fmt.Errorf("parse date_taken of %s: %w", r.PhotoID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", r.PhotoID, err)
	}
	return &domain.Photo{
		ID:        r.PhotoID,
		Title:     r.Title,
		DateTaken: taken,
		RemoteURL: r.RemoteURL,
		CreatedAt: created,
	}, nil
}

func rowsToPhotos(rows []photoRow) ([]*domain.Photo, error) {
	photos := make([]*domain.Photo, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// Upsert inserts every descriptor whose identifier is not stored yet. The batch
// is one transaction on the writer: either all new rows become visible or none.
// Within a batch the first occurrence of an identifier wins, as it does across
// batches.
func (s *Store) Upsert(ctx context.Context, descriptors []domain.PhotoDescriptor) ([]domain.Handle, error) {
	if len(descriptors) == 0 {
		return []domain.Handle{}, nil
	}

	tx, err := s.writer.BeginTxx(ctx, nil)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	createdAt := formatTime(s.now())
	seen := make(map[string]struct{}, len(descriptors))
	handles := make([]domain.Handle, 0, len(descriptors))
	inserted := 0

	for i := range descriptors {
		d := &descriptors[i]
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		handles = append(handles, domain.Handle{PhotoID: d.ID})

		query, args, err := psql.
			Insert(tablePhotos).
			Columns(photoColumns...).
			Values(d.ID, d.Title, formatTime(d.DateTaken), d.RemoteURL, createdAt).
			Suffix("ON CONFLICT(photo_id) DO NOTHING").
			ToSql()
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build upsert query")
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "insert photo %s", d.ID)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "commit upsert")
	}

	s.logger.Debug("photos upserted",
		"received", len(descriptors),
		"distinct", len(handles),
		"inserted", inserted,
	)

	return handles, nil
}

// Resolve loads the photos referenced by handles from the reader, in handle
// order. Handles without a row are skipped.
func (s *Store) Resolve(ctx context.Context, handles []domain.Handle) ([]*domain.Photo, error) {
	if len(handles) == 0 {
		return []*domain.Photo{}, nil
	}

	byID := make(map[string]*domain.Photo, len(handles))
	for start := 0; start < len(handles); start += resolveChunk {
		end := min(start+resolveChunk, len(handles))

		ids := make([]string, 0, end-start)
		for _, h := range handles[start:end] {
			ids = append(ids, h.PhotoID)
		}

		query, args, err := psql.
			Select(photoColumns...).
			From(tablePhotos).
			Where(sq.Eq{"photo_id": ids}).
			ToSql()
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build resolve query")
		}

		var rows []photoRow
		if err := s.reader.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "resolve photos")
		}
		photos, err := rowsToPhotos(rows)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "resolve photos")
		}
		for _, p := range photos {
			byID[p.ID] = p
		}
	}

	result := make([]*domain.Photo, 0, len(handles))
	for _, h := range handles {
		if p, ok := byID[h.PhotoID]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

// FetchAll returns every stored photo ordered by date taken, then identifier.
func (s *Store) FetchAll(ctx context.Context) ([]*domain.Photo, error) {
	query, args, err := psql.
		Select(photoColumns...).
		From(tablePhotos).
		OrderBy("date_taken ASC", "photo_id ASC").
		ToSql()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build fetch all query")
	}

	var rows []photoRow
	if err := s.reader.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "fetch photos")
	}

	photos, err := rowsToPhotos(rows)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "fetch photos")
	}
	return photos, nil
}

// GetPhoto returns the photo with the given identifier.
func (s *Store) GetPhoto(ctx context.Context, photoID string) (*domain.Photo, error) {
	query, args, err := psql.
		Select(photoColumns...).
		From(tablePhotos).
		Where(sq.Eq{"photo_id": photoID}).
		ToSql()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build get photo query")
	}

	var row photoRow
	err = s.reader.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("photo %s not found", photoID)
	}
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "get photo %s", photoID)
	}

	p, err := row.toDomain()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "get photo")
	}
	return p, nil
}
