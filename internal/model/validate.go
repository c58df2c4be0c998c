package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// serviceNamePattern restricts service names to identifier-ish strings so
// they survive URL paths and NATS subjects unescaped.
var serviceNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateServiceName checks the shape of a service name.
func ValidateServiceName(service string) error {
	var ve ValidationError
	if strings.TrimSpace(service) == "" {
		ve.Add("service", "is required")
	} else if !serviceNamePattern.MatchString(service) {
		ve.Add("service", fmt.Sprintf("invalid name %q (allowed: letters, digits, '.', '_', '-')", service))
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateRecord checks a ConfigRecord before it is written: service name
// shape, positive version, and a well-formed JSON payload.
func ValidateRecord(rec *ConfigRecord) error {
	var ve ValidationError

	if err := ValidateServiceName(rec.Service); err != nil {
		var sve *ValidationError
		if errors.As(err, &sve) {
			ve.Errors = append(ve.Errors, sve.Errors...)
		}
	}

	if rec.Version <= 0 {
		ve.Add("version", fmt.Sprintf("must be a positive integer, got %d", rec.Version))
	}

	if len(rec.Payload) == 0 {
		ve.Add("payload", "is required")
	} else if !json.Valid(rec.Payload) {
		ve.Add("payload", "is not valid JSON")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
