package events

import (
	"context"

	"github.com/groblegark/confstore/internal/model"
)

// Event topic constants
const (
	TopicConfigCreated = "confstore.config.created"
)

// ConfigCreated is published after a new configuration version is durably
// stored. Idempotent no-op Puts do not emit it.
type ConfigCreated struct {
	Record *model.ConfigRecord `json:"record"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
