package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/groblegark/confstore/internal/model"
	"github.com/groblegark/confstore/internal/store"
)

// configColumns is the column list used for SELECT statements on the
// configurations table.
const configColumns = `id, service, version, payload, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryPutConfig performs the idempotent insert. ON CONFLICT DO NOTHING makes
// the unique (service, version) index the sole synchronization point: exactly
// one of any set of racing writers inserts, the rest observe a no-op.
func queryPutConfig(ctx context.Context, db executor, rec *model.ConfigRecord) (bool, error) {
	err := db.QueryRowContext(ctx, `
		INSERT INTO configurations (service, version, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (service, version) DO NOTHING
		RETURNING id, created_at`,
		rec.Service, rec.Version, []byte(rec.Payload),
	).Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Row already present; the existing payload is retained untouched.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("put config: %w", err)
	}
	return true, nil
}

// queryPutConfigAutoVersion assigns version = max(existing)+1 and inserts in a
// single statement. The aggregate subselect always yields one row, so an
// unknown service starts at version 1. If a concurrent writer claims the same
// computed version first, no row is returned and the race is surfaced as
// store.ErrVersionConflict.
func queryPutConfigAutoVersion(ctx context.Context, db executor, service string, payload []byte) (*model.ConfigRecord, error) {
	rec := &model.ConfigRecord{Service: service, Payload: payload}
	err := db.QueryRowContext(ctx, `
		INSERT INTO configurations (service, version, payload)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2
		FROM configurations
		WHERE service = $1
		ON CONFLICT (service, version) DO NOTHING
		RETURNING id, version, created_at`,
		service, payload,
	).Scan(&rec.ID, &rec.Version, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("put config auto version: %w", err)
	}
	return rec, nil
}

func queryGetLatest(ctx context.Context, db executor, service string) (*model.ConfigRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+configColumns+`
		FROM configurations
		WHERE service = $1
		ORDER BY version DESC
		LIMIT 1`,
		service,
	)
	return scanConfig(row)
}

func queryGetVersion(ctx context.Context, db executor, service string, version int64) (*model.ConfigRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+configColumns+`
		FROM configurations
		WHERE service = $1 AND version = $2`,
		service, version,
	)
	return scanConfig(row)
}

func queryListVersions(ctx context.Context, db executor, service string) ([]model.VersionInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT version, created_at
		FROM configurations
		WHERE service = $1
		ORDER BY version ASC`,
		service,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()
	return scanVersions(rows)
}

func queryListServices(ctx context.Context, db executor, since *time.Time) ([]model.ServiceActivity, error) {
	query := `
		SELECT service, MAX(created_at) AS updated_at
		FROM configurations
		GROUP BY service`
	var args []any
	if since != nil {
		query += `
		HAVING MAX(created_at) >= $1`
		args = append(args, *since)
	}
	query += `
		ORDER BY updated_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	return scanServices(rows)
}

func queryListAllConfigs(ctx context.Context, db executor) ([]*model.ConfigRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+configColumns+`
		FROM configurations
		ORDER BY service ASC, version ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list all configs: %w", err)
	}
	defer rows.Close()
	return scanConfigs(rows)
}
