package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS survey (
    enketo_id TEXT PRIMARY KEY,
    openrosa_server TEXT NOT NULL,
    openrosa_id TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_survey_openrosa ON survey(openrosa_server, openrosa_id);
`

// SQLiteStore keeps surveys in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and creates the schema.
// Safe to call on an existing database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create survey schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, enketoID string) (*survey.Survey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT openrosa_server, openrosa_id, active FROM survey WHERE enketo_id = ?`, enketoID)

	rec := survey.Survey{EnketoID: enketoID}
	if err := row.Scan(&rec.OpenRosaServer, &rec.OpenRosaID, &rec.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", survey.ErrNotFound, enketoID)
		}
		return nil, fmt.Errorf("get survey %s: %w", enketoID, err)
	}
	return checkActive(&rec)
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, rec *survey.Survey) error {
	if err := validate(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO survey (enketo_id, openrosa_server, openrosa_id, active)
VALUES (?, ?, ?, ?)
ON CONFLICT(enketo_id) DO UPDATE SET
    openrosa_server = excluded.openrosa_server,
    openrosa_id = excluded.openrosa_id,
    active = excluded.active`,
		rec.EnketoID, rec.OpenRosaServer, rec.OpenRosaID, rec.Active)
	if err != nil {
		return fmt.Errorf("put survey %s: %w", rec.EnketoID, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
