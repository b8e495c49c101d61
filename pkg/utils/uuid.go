// Package utils holds small, dependency-light helpers shared across the
// runtime that don't warrant their own package.
package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// NewUUID generates a new UUIDv7 (time-ordered), used for ask ids so that
// in-flight asks sort and log naturally by creation time.
func NewUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

// MustNewUUID generates a new UUIDv7 and panics on failure. Only safe to
// use where entropy exhaustion is not a realistic failure mode (process
// startup, test helpers).
func MustNewUUID() string {
	id, err := NewUUID()
	if err != nil {
		panic(err)
	}
	return id
}

// ParseUUID parses s as a UUID, returning an error for malformed input.
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// ValidateUUID reports whether s parses as a valid UUID.
func ValidateUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
