// Package sqlite implements the store.Store interface backed by an embedded
// SQLite database. It exists for single-node and development deployments
// where running PostgreSQL is not worth the trouble; the semantics match the
// postgres backend, with the unique (service, version) index providing the
// same idempotent-insert guarantee.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/groblegark/confstore/internal/model"
	"github.com/groblegark/confstore/internal/store"
)

// Timestamps are stored as fixed-width UTC text rather than through the
// driver's time handling: aggregates like MAX(created_at) lose the column's
// declared type and come back as plain strings, so the encoding has to be
// ours on both sides. The fixed width keeps string comparison equal to
// chronological order, which the HAVING filter relies on.
const timeLayout = "2006-01-02 15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS configurations (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    service    TEXT    NOT NULL,
    version    INTEGER NOT NULL,
    payload    TEXT    NOT NULL,
    created_at TEXT    NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS configurations_service_version_idx
    ON configurations (service, version);

CREATE INDEX IF NOT EXISTS configurations_service_idx
    ON configurations (service);

CREATE INDEX IF NOT EXISTS configurations_created_at_idx
    ON configurations (created_at);
`

// SQLiteStore implements store.Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements store.Store.
var _ store.Store = (*SQLiteStore)(nil)

// New opens (or creates) the SQLite database at path and bootstraps the
// schema. Use ":memory:" for an ephemeral store.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent Puts; reads still
	// run concurrently through the shared page cache.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutConfig(ctx context.Context, rec *model.ConfigRecord) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO configurations (service, version, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		rec.Service, rec.Version, string(rec.Payload), formatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("put config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = now
	return true, nil
}

func (s *SQLiteStore) PutConfigAutoVersion(ctx context.Context, service string, payload []byte) (*model.ConfigRecord, error) {
	now := time.Now().UTC()
	rec := &model.ConfigRecord{Service: service, Payload: payload, CreatedAt: now}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO configurations (service, version, payload, created_at)
		SELECT ?, COALESCE(MAX(version), 0) + 1, ?, ?
		FROM configurations
		WHERE service = ?
		ON CONFLICT (service, version) DO NOTHING
		RETURNING id, version`,
		service, string(payload), formatTime(now), service,
	).Scan(&rec.ID, &rec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("put config auto version: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) GetLatest(ctx context.Context, service string) (*model.ConfigRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, service, version, payload, created_at
		FROM configurations
		WHERE service = ?
		ORDER BY version DESC
		LIMIT 1`,
		service,
	)
	return scanConfig(row)
}

func (s *SQLiteStore) GetVersion(ctx context.Context, service string, version int64) (*model.ConfigRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, service, version, payload, created_at
		FROM configurations
		WHERE service = ? AND version = ?`,
		service, version,
	)
	return scanConfig(row)
}

func (s *SQLiteStore) ListVersions(ctx context.Context, service string) ([]model.VersionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, created_at
		FROM configurations
		WHERE service = ?
		ORDER BY version ASC`,
		service,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []model.VersionInfo{}
	for rows.Next() {
		var (
			v         model.VersionInfo
			createdAt string
		)
		if err := rows.Scan(&v.Version, &createdAt); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *SQLiteStore) ListServices(ctx context.Context, since *time.Time) ([]model.ServiceActivity, error) {
	query := `
		SELECT service, MAX(created_at) AS updated_at
		FROM configurations
		GROUP BY service`
	var args []any
	if since != nil {
		query += `
		HAVING MAX(created_at) >= ?`
		args = append(args, formatTime(*since))
	}
	query += `
		ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := []model.ServiceActivity{}
	for rows.Next() {
		var (
			sa        model.ServiceActivity
			updatedAt string
		)
		if err := rows.Scan(&sa.Service, &updatedAt); err != nil {
			return nil, err
		}
		if sa.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		services = append(services, sa)
	}
	return services, rows.Err()
}

func (s *SQLiteStore) ListAllConfigs(ctx context.Context) ([]*model.ConfigRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service, version, payload, created_at
		FROM configurations
		ORDER BY service ASC, version ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list all configs: %w", err)
	}
	defer rows.Close()

	var recs []*model.ConfigRecord
	for rows.Next() {
		rec, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Ping checks database reachability.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanConfig(row scannable) (*model.ConfigRecord, error) {
	var (
		rec       model.ConfigRecord
		payload   string
		createdAt string
	)
	err := row.Scan(&rec.ID, &rec.Service, &rec.Version, &payload, &createdAt)
	if err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if payload != "" {
		rec.Payload = json.RawMessage(payload)
	}
	return &rec, nil
}
