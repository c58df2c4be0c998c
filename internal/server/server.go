// Package server exposes the configuration store over an HTTP/JSON API.
package server

import (
	"context"
	"log/slog"

	"github.com/groblegark/confstore/internal/events"
	"github.com/groblegark/confstore/internal/model"
	"github.com/groblegark/confstore/internal/store"
)

// ConfigServer handles HTTP requests against a store and publishes
// change events.
type ConfigServer struct {
	store     store.Store
	publisher events.Publisher
}

// NewConfigServer returns a new ConfigServer backed by the given store and publisher.
func NewConfigServer(s store.Store, p events.Publisher) *ConfigServer {
	return &ConfigServer{
		store:     s,
		publisher: p,
	}
}

// publishCreated emits a ConfigCreated event for a freshly stored record.
// Publishing is best-effort; failures are logged but do not fail the write.
func (s *ConfigServer) publishCreated(ctx context.Context, rec *model.ConfigRecord) {
	if err := s.publisher.Publish(ctx, events.TopicConfigCreated, events.ConfigCreated{Record: rec}); err != nil {
		slog.Warn("failed to publish event",
			"topic", events.TopicConfigCreated,
			"service", rec.Service,
			"version", rec.Version,
			"error", err,
		)
	}
}
