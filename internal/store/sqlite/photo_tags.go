package sqlite

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/photoramax/photorama/internal/domain"
	domainerrors "github.com/photoramax/photorama/internal/errors"
)

const tablePhotoTags = "photo_tags"

// AddTag associates tagID with photoID. Adding an existing association is a
// no-op. Both sides must exist.
func (s *Store) AddTag(ctx context.Context, photoID, tagID string) error {
	return s.withTagTx(ctx, photoID, tagID, func(tx *sqlx.Tx) error {
		query, args, err := psql.
			Insert(tablePhotoTags).
			Columns("photo_id", "tag_id", "created_at").
			Values(photoID, tagID, formatTime(s.now())).
			Suffix("ON CONFLICT(photo_id, tag_id) DO NOTHING").
			ToSql()
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "build add tag query")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeStorage, "add tag to photo")
		}
		return nil
	})
}

// RemoveTag dissociates tagID from photoID. Removing an absent association is a
// no-op. Both sides must exist.
func (s *Store) RemoveTag(ctx context.Context, photoID, tagID string) error {
	return s.withTagTx(ctx, photoID, tagID, func(tx *sqlx.Tx) error {
		query, args, err := psql.
			Delete(tablePhotoTags).
			Where(sq.Eq{"photo_id": photoID, "tag_id": tagID}).
			ToSql()
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "build remove tag query")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeStorage, "remove tag from photo")
		}
		return nil
	})
}

// TagsForPhoto returns the tags attached to photoID, ordered by name.
func (s *Store) TagsForPhoto(ctx context.Context, photoID string) ([]*domain.Tag, error) {
	query, args, err := psql.
		Select("t.id", "t.name", "t.created_at").
		From(tableTags+" t").
		Join(tablePhotoTags+" pt ON pt.tag_id = t.id").
		Where(sq.Eq{"pt.photo_id": photoID}).
		OrderBy("t.name ASC", "t.id ASC").
		ToSql()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build photo tags query")
	}

	var rows []tagRow
	if err := s.reader.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "fetch tags for photo %s", photoID)
	}

	tags, err := rowsToTags(rows)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "fetch tags for photo")
	}
	return tags, nil
}

// withTagTx runs fn in a writer transaction after checking that both the photo
// and the tag exist.
func (s *Store) withTagTx(ctx context.Context, photoID, tagID string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.writer.BeginTxx(ctx, nil)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeStorage, "begin tag update")
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	if err := rowExists(ctx, tx, tablePhotos, "photo_id", photoID); err != nil {
		return err
	}
	if err := rowExists(ctx, tx, tableTags, "id", tagID); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeStorage, "commit tag update")
	}
	return nil
}

func rowExists(ctx context.Context, tx *sqlx.Tx, table, column, value string) error {
	query, args, err := psql.
		Select("1").
		From(table).
		Where(sq.Eq{column: value}).
		Limit(1).
		ToSql()
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "build exists query")
	}

	var one int
	err = tx.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domainerrors.NotFoundf("%s %s not found", singular(table), value)
	}
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeStorage, "look up %s", value)
	}
	return nil
}

func singular(table string) string {
	switch table {
	case tablePhotos:
		return "photo"
	case tableTags:
		return "tag"
	default:
		return table
	}
}
