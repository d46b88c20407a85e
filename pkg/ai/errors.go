package ai

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the transport layer. Wrapped by *InferenceError so
// callers can match with errors.Is while still seeing attempt metadata.
var (
	// ErrUnavailable means the endpoint could not be reached after retries.
	ErrUnavailable = errors.New("inference endpoint unavailable")
	// ErrTimeout means every attempt exceeded the per-attempt deadline.
	ErrTimeout = errors.New("inference request timed out")
	// ErrProtocol means the endpoint answered outside the expected envelope.
	ErrProtocol = errors.New("unexpected inference response")
)

// Sentinel errors for the semantic layer.
var (
	// ErrUnparseable means no structured payload could be recovered from the
	// model output, even after fallback extraction.
	ErrUnparseable = errors.New("model response could not be parsed")
	// ErrValidation means a decoded payload failed field validation.
	ErrValidation = errors.New("model response failed validation")
)

// InferenceError reports a transport failure talking to the model endpoint.
type InferenceError struct {
	Kind     error // one of ErrUnavailable, ErrTimeout, ErrProtocol
	Attempts int
	Latency  time.Duration
	Cause    error
}

func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v after %d attempt(s): %v", e.Kind, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("%v after %d attempt(s)", e.Kind, e.Attempts)
}

func (e *InferenceError) Unwrap() error {
	return e.Kind
}

// ParseError reports that a model response could not be turned into a
// validated record. Raw holds a truncated copy of the offending text so the
// failure can be surfaced for human review.
type ParseError struct {
	Task   TaskKind
	Field  string // empty when the text was unparseable outright
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid field %q: %s", e.Task, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Task, e.Reason)
}

func (e *ParseError) Unwrap() error {
	if e.Field != "" {
		return ErrValidation
	}
	return ErrUnparseable
}

const rawPreviewLimit = 500

// truncateRaw keeps enough of the model output for diagnosis without
// persisting entire replies inside error values.
func truncateRaw(raw string) string {
	if len(raw) <= rawPreviewLimit {
		return raw
	}
	return raw[:rawPreviewLimit] + "..."
}

func unparseable(task TaskKind, reason, raw string) *ParseError {
	return &ParseError{Task: task, Reason: reason, Raw: truncateRaw(raw)}
}

func invalidField(task TaskKind, field, reason, raw string) *ParseError {
	return &ParseError{Task: task, Field: field, Reason: reason, Raw: truncateRaw(raw)}
}
