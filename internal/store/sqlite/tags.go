package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/text/unicode/norm"

	"github.com/photoramax/photorama/internal/domain"
	domainerrors "github.com/photoramax/photorama/internal/errors"
	"github.com/photoramax/photorama/internal/id"
)

const tableTags = "tags"

// tagColumns must match the db tags of tagRow.
var tagColumns = []string{"id", "name", "created_at"}

type tagRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r *tagRow) toDomain() (*domain.Tag, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Tag{ID: r.ID, Name: r.Name, CreatedAt: created}, nil
}

func rowsToTags(rows []tagRow) ([]*domain.Tag, error) {
	tags := make([]*domain.Tag, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// NormalizeTagName trims surrounding whitespace and applies Unicode NFC, so
// visually identical names are stored identically.
func NormalizeTagName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// FetchAllTags returns every tag ordered by name, then identifier.
func (s *Store) FetchAllTags(ctx context.Context) ([]*domain.Tag, error) {
	query, args, err := psql.
		Select(tagColumns...).
		From(tableTags).
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build fetch tags query")
	}

	var rows []tagRow
	if err := s.reader.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "fetch tags")
	}

	tags, err := rowsToTags(rows)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "fetch tags")
	}
	return tags, nil
}

// CreateTag stores a new tag named name. Names are not unique.
func (s *Store) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	tagID, err := id.NewTagID()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate tag id")
	}

	tag := &domain.Tag{
		ID:        tagID,
		Name:      NormalizeTagName(name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.validator.Validate(tag); err != nil {
		return nil, err
	}

	query, args, err := psql.
		Insert(tableTags).
		Columns(tagColumns...).
		Values(tag.ID, tag.Name, formatTime(tag.CreatedAt)).
		ToSql()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build create tag query")
	}

	if _, err := s.writer.ExecContext(ctx, query, args...); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "create tag")
	}

	s.logger.Debug("tag created", "tag_id", tag.ID, "name", tag.Name)
	return tag, nil
}

// GetTag returns the tag with the given identifier.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	query, args, err := psql.
		Select(tagColumns...).
		From(tableTags).
		Where(sq.Eq{"id": tagID}).
		ToSql()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build get tag query")
	}

	var row tagRow
	err = s.reader.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("tag %s not found", tagID)
	}
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "get tag %s", tagID)
	}

	t, err := row.toDomain()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "get tag")
	}
	return t, nil
}
