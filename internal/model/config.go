// Package model defines the data types shared by the store, server, and client.
package model

import (
	"encoding/json"
	"time"
)

// ConfigRecord is one immutable configuration snapshot for a service.
// Records are created once and never updated or deleted; "latest" is
// determined by numeric version order, not insertion order.
type ConfigRecord struct {
	ID        int64           `json:"id"`
	Service   string          `json:"service"`
	Version   int64           `json:"version"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// VersionInfo is one entry in a service's version history.
type VersionInfo struct {
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// ServiceActivity names a service together with the creation time of its
// most recent configuration.
type ServiceActivity struct {
	Service   string    `json:"service"`
	UpdatedAt time.Time `json:"updated_at"`
}
