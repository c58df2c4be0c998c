// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/groblegark/confstore/internal/model"
	"github.com/groblegark/confstore/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) PutConfig(ctx context.Context, rec *model.ConfigRecord) (bool, error) {
	return queryPutConfig(ctx, s.db, rec)
}

func (s *PostgresStore) PutConfigAutoVersion(ctx context.Context, service string, payload []byte) (*model.ConfigRecord, error) {
	return queryPutConfigAutoVersion(ctx, s.db, service, payload)
}

func (s *PostgresStore) GetLatest(ctx context.Context, service string) (*model.ConfigRecord, error) {
	return queryGetLatest(ctx, s.db, service)
}

func (s *PostgresStore) GetVersion(ctx context.Context, service string, version int64) (*model.ConfigRecord, error) {
	return queryGetVersion(ctx, s.db, service, version)
}

func (s *PostgresStore) ListVersions(ctx context.Context, service string) ([]model.VersionInfo, error) {
	return queryListVersions(ctx, s.db, service)
}

func (s *PostgresStore) ListServices(ctx context.Context, since *time.Time) ([]model.ServiceActivity, error) {
	return queryListServices(ctx, s.db, since)
}

func (s *PostgresStore) ListAllConfigs(ctx context.Context) ([]*model.ConfigRecord, error) {
	return queryListAllConfigs(ctx, s.db)
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
