package store

import (
	"context"
	"errors"
	"time"

	"github.com/groblegark/confstore/internal/model"
)

// ErrVersionConflict is returned when an auto-versioned insert loses the race
// for its computed version number. The store never retries; callers decide
// whether to resubmit.
var ErrVersionConflict = errors.New("version conflict: concurrent insert for the same service")

// Store defines the persistence interface for configuration records.
// Not-found lookups return sql.ErrNoRows; all other storage failures are
// propagated to the caller unchanged.
type Store interface {
	// PutConfig inserts rec if no record exists for (rec.Service, rec.Version).
	// The insert is idempotent: a duplicate key is a successful no-op and
	// created is false. On insert, rec.ID and rec.CreatedAt are populated.
	PutConfig(ctx context.Context, rec *model.ConfigRecord) (created bool, err error)

	// PutConfigAutoVersion inserts payload under the next free version for
	// service (max existing + 1, or 1). The version is assigned and the row
	// written in a single statement; a lost race returns ErrVersionConflict.
	PutConfigAutoVersion(ctx context.Context, service string, payload []byte) (*model.ConfigRecord, error)

	// GetLatest returns the record with the numerically greatest version.
	GetLatest(ctx context.Context, service string) (*model.ConfigRecord, error)

	// GetVersion returns the record for an exact (service, version) pair.
	GetVersion(ctx context.Context, service string, version int64) (*model.ConfigRecord, error)

	// ListVersions returns all versions for a service in ascending numeric
	// order. An unknown service yields an empty slice, not an error.
	ListVersions(ctx context.Context, service string) ([]model.VersionInfo, error)

	// ListServices returns service names ordered by most recent record
	// creation, newest first. A non-nil since filters to services with a
	// record created at or after that time.
	ListServices(ctx context.Context, since *time.Time) ([]model.ServiceActivity, error)

	// ListAllConfigs returns every record, ordered by service then version.
	// Used by the backup exporter.
	ListAllConfigs(ctx context.Context) ([]*model.ConfigRecord, error)

	// Ping checks that the underlying storage is reachable.
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}
