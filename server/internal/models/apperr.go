package models

import (
	"errors"
	"fmt"
)

// ErrKind classifies a failure so the worker can decide retry vs. terminal-fail
// vs. log-and-continue without sniffing error strings.
type ErrKind string

const (
	// Transient indicates the operation may succeed if retried later (network
	// blip, rate limit, vendor 5xx, below-threshold input).
	Transient ErrKind = "transient"
	// Permanent indicates retrying will never help (malformed config, 4xx other
	// than rate limiting, unsupported source kind).
	Permanent ErrKind = "permanent"
	// Data indicates the input itself is invalid (bad payload, missing field).
	Data ErrKind = "data"
	// InvariantBreach indicates an internal consistency assumption was violated.
	InvariantBreach ErrKind = "invariant_breach"
	// Resource indicates exhaustion of a local resource (pool, disk, memory).
	Resource ErrKind = "resource"
)

// AppError wraps an underlying error with a retry classification.
type AppError struct {
	Kind ErrKind
	Op   string
	Err  error
}

func (e *AppError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError builds a classified error.
func NewAppError(kind ErrKind, op string, err error) *AppError {
	return &AppError{Kind: kind, Op: op, Err: err}
}

// Transientf builds a Transient AppError with a formatted message.
func Transientf(op, format string, args ...interface{}) *AppError {
	return &AppError{Kind: Transient, Op: op, Err: fmt.Errorf(format, args...)}
}

// Permanentf builds a Permanent AppError with a formatted message.
func Permanentf(op, format string, args ...interface{}) *AppError {
	return &AppError{Kind: Permanent, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the ErrKind from err, defaulting to Transient for
// unclassified errors so an unexpected failure is retried rather than
// silently dropped.
func KindOf(err error) ErrKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Transient
}

// IsRetryable reports whether err should be retried by the worker.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case Transient, Resource:
		return true
	default:
		return false
	}
}

var (
	// ErrBelowThreshold is returned by the synthesizer when there are not
	// enough processed items to synthesize a daily analysis yet.
	ErrBelowThreshold = errors.New("insufficient processed items for synthesis")
	// ErrSourceNotFound is returned when a referenced source does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrJobNotFound is returned when a referenced job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrUnknownJobKind is returned when the worker has no handler registered for a job kind.
	ErrUnknownJobKind = errors.New("no handler registered for job kind")
)
