package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUserExists signals a duplicate email at registration time.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials covers every login failure. Unknown email and
	// wrong password map to the same value so responses cannot be used to
	// enumerate registered accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers every token verification failure. The cause
	// (expired, tampered, wrong issuer or audience) is never surfaced.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUserNotFound is returned by store lookups; the service translates
	// it before it can leave the core.
	ErrUserNotFound = errors.New("user not found")

	// ErrStorageUnavailable is returned once the storage boundary has
	// exhausted its retry budget against a transient fault.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError carries field-level messages for malformed input.
// The caller can fix the named fields and resubmit.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
