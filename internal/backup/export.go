package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/groblegark/confstore/internal/model"
	"github.com/groblegark/confstore/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	RecordCount int       `json:"record_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every configuration record from the store as JSONL to w,
// one record per line after a header line. The store returns records ordered
// by service then version, so exports are byte-stable for identical contents.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	recs, err := s.ListAllConfigs(ctx)
	if err != nil {
		return fmt.Errorf("list configs: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		RecordCount: len(recs),
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range recs {
		if err := enc.Encode(record{Type: "config", Data: rec}); err != nil {
			return fmt.Errorf("write record %s@%d: %w", rec.Service, rec.Version, err)
		}
	}
	return nil
}

// ImportRecord parses a single JSONL line previously written by ExportJSONL.
// Header lines return (nil, nil).
func ImportRecord(line []byte) (*model.ConfigRecord, error) {
	var wrapped struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(line, &wrapped); err != nil {
		return nil, fmt.Errorf("parse line: %w", err)
	}
	if wrapped.Type != "config" {
		return nil, nil
	}
	var rec model.ConfigRecord
	if err := json.Unmarshal(wrapped.Data, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &rec, nil
}
