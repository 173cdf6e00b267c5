// Package sqlite implements the photo and tag repositories on SQLite.
//
// The store keeps two handles on the same database file. The writer has exactly
// one connection, so every mutation is serialized through it. The reader is a
// small query_only pool; WAL mode guarantees it only observes committed
// transactions.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/photoramax/photorama/internal/store"
	"github.com/photoramax/photorama/internal/validation"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed width so stored timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const readerConns = 4

// psql builds queries with "?" placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var (
	_ store.PhotoRepository = (*Store)(nil)
	_ store.TagRepository   = (*Store)(nil)
)

// Store provides SQLite-backed photo and tag persistence.
type Store struct {
	writer    *sqlx.DB
	reader    *sqlx.DB
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// Open creates or opens the database at path, applies pending migrations and
// returns a store with a single-connection writer and a read-only reader pool.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	writer, err := sqlx.Open("sqlite", dsn(path, false))
	if err != nil {
		return nil, fmt.Errorf("open sqlite writer: %w", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)
	writer.SetConnMaxLifetime(0)

	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("ping sqlite writer: %w", err)
	}

	if err := migrateUp(writer.DB); err != nil {
		writer.Close()
		return nil, err
	}

	reader, err := sqlx.Open("sqlite", dsn(path, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open sqlite reader: %w", err)
	}
	reader.SetMaxOpenConns(readerConns)
	reader.SetMaxIdleConns(readerConns)
	reader.SetConnMaxLifetime(time.Hour)

	logger.Debug("sqlite store opened", "path", path)

	return &Store{
		writer:    writer,
		reader:    reader,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Close closes both database handles.
func (s *Store) Close() error {
	return errors.Join(s.reader.Close(), s.writer.Close())
}

// dsn applies pragmas per connection through the driver, so every pooled
// connection gets them.
func dsn(path string, readOnly bool) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	if readOnly {
		q.Add("_pragma", "query_only(1)")
	}
	return "file:" + path + "?" + q.Encode()
}

// migrateUp applies the embedded migrations. The migrate instance is not closed
// because that would close db.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// formatTime formats a time.Time in UTC with a fixed width for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
