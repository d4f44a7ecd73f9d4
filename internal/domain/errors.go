// Package domain holds the candidate, opportunity and match result records
// shared by the matching engine, together with its error taxonomy.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the machine-readable category of an engine error.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindParse               Kind = "parse"
	KindBatchPartialFailure Kind = "batch_partial_failure"
	KindServiceUnavailable  Kind = "service_unavailable"
	KindCancelled           Kind = "cancelled"
	KindInternal            Kind = "internal"
)

// Error is the error type surfaced by the engine. Cause is kept for logging
// and errors.Is/As but is never marshalled.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// MarshalJSON exposes only the kind and the human-readable message.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    Kind   `json:"kind"`
		Field   string `json:"field,omitempty"`
		Message string `json:"message"`
	}{Kind: e.Kind, Field: e.Field, Message: e.Message})
}

// NewValidationError reports an invalid record or request.
func NewValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NewProviderError reports an external provider that failed or timed out.
func NewProviderError(provider string, cause error) *Error {
	return &Error{Kind: KindProviderUnavailable, Field: provider, Message: "provider unavailable", Cause: cause}
}

// NewServiceUnavailableError reports an engine without any provider.
func NewServiceUnavailableError(message string) *Error {
	return &Error{Kind: KindServiceUnavailable, Message: message}
}

// NewCancelledError reports a pair abandoned because its context ended.
func NewCancelledError(cause error) *Error {
	return &Error{Kind: KindCancelled, Message: "matching cancelled", Cause: cause}
}

// KindOf returns the kind of err, KindInternal for foreign errors and the
// empty kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Field != "" {
			return fmt.Sprintf("%s: %s", e.Field, e.Message)
		}
		return e.Message
	}
	return "internal error"
}
