// Package client provides a transport-agnostic interface for the confstore
// service and an HTTP/JSON implementation that talks to the confstore REST API.
package client

import (
	"context"
	"time"

	"github.com/groblegark/confstore/internal/model"
)

// ConfigClient is the interface that all confstore CLI commands use to
// communicate with the configuration server. It is implemented by HTTPClient.
type ConfigClient interface {
	// Writes
	PutConfig(ctx context.Context, service string, payload []byte) (*PutResponse, error)
	PutVersion(ctx context.Context, service string, version int64, payload []byte) (*PutResponse, error)

	// Reads
	GetConfig(ctx context.Context, service string, opts *GetOptions) ([]byte, error)
	GetVersion(ctx context.Context, service string, version int64) (*model.ConfigRecord, error)
	GetHistory(ctx context.Context, service string) ([]model.VersionInfo, error)
	ListServices(ctx context.Context, since *time.Time) ([]model.ServiceActivity, error)

	// Health
	Health(ctx context.Context) (*HealthStatus, error)

	// Lifecycle
	Close() error
}

// PutResponse is the server's answer to a write. Status is "saved" when a new
// version was stored and "unchanged" when the version already existed.
type PutResponse struct {
	Service string `json:"service"`
	Version int64  `json:"version"`
	Status  string `json:"status"`
}

// GetOptions narrows a configuration read. The zero value fetches the latest
// version as stored.
type GetOptions struct {
	// Version pins a specific version; 0 means latest.
	Version int64
	// Template renders the payload on the server before returning it.
	Template bool
	// Params are passed to the server as template data.
	Params map[string]string
}

// HealthStatus is the response from the health endpoint.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
