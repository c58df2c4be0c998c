// Package render expands template placeholders inside stored configuration
// payloads. The payload's JSON encoding is executed as a text/template with
// the caller-supplied parameters as data, then parsed back; a payload without
// template syntax passes through unchanged.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// Default parameter values, overridable per request.
const (
	DefaultUser = "anonymous"
	DefaultEnv  = "development"
)

var funcMap = template.FuncMap{
	"toJSON": func(v any) (string, error) {
		out, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(out), nil
	},
	"fromJSON": func(s string) (any, error) {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		return v, nil
	},
}

// Payload renders a stored payload with the given parameters. Missing keys
// fail the render rather than expanding to "<no value>": a half-rendered
// configuration is worse than an error.
func Payload(payload json.RawMessage, params map[string]string) (json.RawMessage, error) {
	ctx := map[string]string{
		"user":      DefaultUser,
		"env":       DefaultEnv,
		"timestamp": "",
	}
	for k, v := range params {
		ctx[k] = v
	}

	tmpl, err := template.New("payload").Funcs(funcMap).Option("missingkey=error").Parse(string(payload))
	if err != nil {
		return nil, fmt.Errorf("parsing payload template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("rendering payload template: %w", err)
	}

	rendered := buf.Bytes()
	if !json.Valid(rendered) {
		return nil, fmt.Errorf("rendered payload is not valid JSON")
	}
	return rendered, nil
}

// HasTemplateSyntax reports whether a payload contains template actions.
// Used to skip the render pass for plain payloads.
func HasTemplateSyntax(payload json.RawMessage) bool {
	return strings.Contains(string(payload), "{{")
}
