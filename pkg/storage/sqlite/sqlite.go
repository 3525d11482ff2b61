package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kasuboski/moviefind/pkg/storage"
	_ "github.com/mattn/go-sqlite3"
)

var _ storage.Storage = (*SQLite)(nil)

// SQLite stores search records in a sqlite database.
// Terms are counted with a single INSERT ... ON CONFLICT statement so concurrent upserts never lose updates.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*SQLite)

// WithClock sets the time source used for created/updated timestamps
func WithClock(now func() time.Time) Option {
	return func(s *SQLite) {
		s.now = now
	}
}

// New opens the sqlite database at filePath. Call RunMigrations before use.
func New(ctx context.Context, filePath string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}

	// a single connection serializes writers and keeps :memory: databases on one handle
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// RunMigrations brings the schema up to date
func (s *SQLite) RunMigrations(ctx context.Context) error {
	return runMigrations(s.db)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
