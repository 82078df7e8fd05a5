package domain

import (
	"fmt"
	"strings"
)

// ConnectionMode selects which credential set and connection pool a database
// operation uses.
type ConnectionMode string

const (
	// ModeService uses the elevated service-role credentials.
	ModeService ConnectionMode = "service"
	// ModeUser uses the restricted anonymous credentials.
	ModeUser ConnectionMode = "user"
)

// ParseConnectionMode converts a case-insensitive mode name into a
// ConnectionMode. Unknown names return ErrInvalidInput.
func ParseConnectionMode(value string) (ConnectionMode, error) {
	switch ConnectionMode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeService:
		return ModeService, nil
	case ModeUser:
		return ModeUser, nil
	default:
		return "", fmt.Errorf("%w: unknown connection mode %q", ErrInvalidInput, value)
	}
}

// String returns the lower-case mode name.
func (m ConnectionMode) String() string {
	return string(m)
}
