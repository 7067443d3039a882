// Package parsererror defines the typed error taxonomy shared by the parsing
// pipeline, the receipt pipeline and the HTTP layer.
package parsererror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the parse/ingest taxonomy. Handlers and the resolver
// branch on these with errors.Is.
var (
	// ErrNoAmount means no usable amount could be extracted from the input.
	ErrNoAmount = errors.New("no amount found")

	// ErrNotAReceipt means the semantic parser decided the image text is not
	// a purchase receipt.
	ErrNotAReceipt = errors.New("not a receipt")

	// ErrUnreadable means the receipt text could not be read into line items.
	ErrUnreadable = errors.New("receipt unreadable")

	// ErrInvalidResponse means the remote parser returned a body no JSON
	// object could be extracted from.
	ErrInvalidResponse = errors.New("invalid remote response")

	// ErrUnauthorized means the identity or shared-secret check failed.
	ErrUnauthorized = errors.New("unauthorized")
)

// TransportError wraps a network failure, timeout or non-2xx status from a
// remote collaborator. It always triggers the deterministic fallback path.
type TransportError struct {
	Service string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports a well-formed but semantically invalid value, e.g.
// a non-positive amount in an otherwise parsable remote response.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s='%s': %s", e.Field, e.Value, e.Reason)
}

// PersistenceError reports a failed store operation for a single record.
// It is aggregated, not fatal, in batch flows.
type PersistenceError struct {
	Operation string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Operation, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsSoftParseFailure reports whether err is one of the parse outcomes that
// should silently divert to the fallback path rather than surface to the user.
func IsSoftParseFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoAmount) || errors.Is(err, ErrInvalidResponse) {
		return true
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
