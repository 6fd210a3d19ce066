package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrInvalidIdentity     = errors.New("invalid GIE identifier")
	ErrInvalidCode         = errors.New("code must be 6 digits")
	ErrNotFound            = errors.New("resource not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrCodeRejected        = errors.New("code expired or invalid")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrGateNotFound        = errors.New("gate not found")
	ErrInvalidMonth        = errors.New("invalid calendar month")
)

// ErrorKind classifies gate failures
type ErrorKind string

const (
	KindValidation       ErrorKind = "VALIDATION"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindTransport        ErrorKind = "TRANSPORT"
	KindBusinessRule     ErrorKind = "BUSINESS_RULE"
	KindExpiredOrInvalid ErrorKind = "EXPIRED_OR_INVALID"
	KindInvalidState     ErrorKind = "INVALID_STATE"
	KindSuperseded       ErrorKind = "SUPERSEDED"
)

// Retryable reports whether the user can repeat or recover from the failure
// without correcting their input.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTransport, KindBusinessRule, KindExpiredOrInvalid, KindSuperseded:
		return true
	default:
		return false
	}
}

// GateError is the typed result of every failed gate operation.
type GateError struct {
	Kind         ErrorKind
	Message      string
	FallbackCode string // set when a code was synthesized so the user can continue
	Cause        error
}

// Error implements the error interface.
func (e *GateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *GateError) Unwrap() error {
	return e.Cause
}

// Is matches another *GateError by kind.
func (e *GateError) Is(target error) bool {
	if t, ok := target.(*GateError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Retryable reports whether the failure is retryable.
func (e *GateError) Retryable() bool {
	return e.Kind.Retryable()
}

// NewGateError builds a GateError without a cause.
func NewGateError(kind ErrorKind, message string) *GateError {
	return &GateError{Kind: kind, Message: message}
}

// WrapGateError builds a GateError around a cause.
func WrapGateError(kind ErrorKind, message string, cause error) *GateError {
	return &GateError{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not a GateError.
func KindOf(err error) ErrorKind {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
