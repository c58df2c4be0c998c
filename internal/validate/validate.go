// Package validate parses and checks incoming configuration payloads.
//
// Bodies are accepted as YAML (JSON is a YAML subset, so both work), must
// describe a mapping at the top level, and are canonicalized to JSON before
// storage. Beyond well-formedness the payload is opaque; the only shape rules
// are the ones below.
package validate

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/groblegark/confstore/internal/model"
)

// ParsePayload decodes a YAML (or JSON) body into a mapping. Parse failures
// and non-mapping documents return a *model.ValidationError.
func ParsePayload(body []byte) (map[string]any, error) {
	var ve model.ValidationError
	if len(body) == 0 {
		ve.Add("payload", "is required")
		return nil, &ve
	}

	var data map[string]any
	if err := yaml.Unmarshal(body, &data); err != nil {
		ve.Add("payload", fmt.Sprintf("invalid YAML: %v", err))
		return nil, &ve
	}
	if data == nil {
		ve.Add("payload", "must be a mapping, not a scalar or sequence")
		return nil, &ve
	}
	return data, nil
}

// CheckPayload applies the shape rules to a parsed payload:
//   - "version", when present, must be a positive integer;
//   - "database", when present, must be a mapping with a non-empty string
//     "host" and an integer "port" in 1..65535.
//
// All violations are collected into a single *model.ValidationError.
func CheckPayload(data map[string]any) error {
	var ve model.ValidationError

	if raw, ok := data["version"]; ok {
		if v, ok := asInt64(raw); !ok || v <= 0 {
			ve.Add("version", fmt.Sprintf("must be a positive integer, got %v", raw))
		}
	}

	if raw, ok := data["database"]; ok {
		db, ok := raw.(map[string]any)
		if !ok {
			ve.Add("database", "must be a mapping")
		} else {
			host, ok := db["host"].(string)
			if !ok || host == "" {
				ve.Add("database.host", "must be a non-empty string")
			}
			port, ok := asInt64(db["port"])
			if !ok || port < 1 || port > 65535 {
				ve.Add("database.port", "must be an integer between 1 and 65535")
			}
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// Version extracts the caller-supplied version from a payload. ok is false
// when the payload carries no version field; a malformed value returns an
// error (CheckPayload reports the same condition, but callers that skip it
// still get a sane failure).
func Version(data map[string]any) (version int64, ok bool, err error) {
	raw, present := data["version"]
	if !present {
		return 0, false, nil
	}
	v, valid := asInt64(raw)
	if !valid || v <= 0 {
		var ve model.ValidationError
		ve.Add("version", fmt.Sprintf("must be a positive integer, got %v", raw))
		return 0, false, &ve
	}
	return v, true, nil
}

// ToJSON canonicalizes a parsed payload to its JSON encoding.
func ToJSON(data map[string]any) (json.RawMessage, error) {
	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return out, nil
}

// asInt64 accepts the integer representations the YAML decoder may produce.
// Floats are accepted only when they are whole numbers (JSON numbers decode
// as float64 through some paths).
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
