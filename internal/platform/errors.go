package platform

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind categorizes remote failures. The relay layer keys its
// retry decision off this taxonomy.
type ErrorKind string

const (
	// ErrKindTransient indicates a network-level failure (connect,
	// timeout, 502/503/504) that may succeed on retry.
	ErrKindTransient ErrorKind = "TRANSIENT_NETWORK"

	// ErrKindRateLimited indicates HTTP 429. RetryAfter carries the
	// server-specified delay when the response provided one.
	ErrKindRateLimited ErrorKind = "RATE_LIMITED"

	// ErrKindAuth indicates invalid or missing credentials. Never retried.
	ErrKindAuth ErrorKind = "AUTH"

	// ErrKindValidation indicates the platform rejected the request as
	// malformed (other 4xx). Never retried.
	ErrKindValidation ErrorKind = "VALIDATION"
)

// Error is a classified remote failure returned by platform collaborators
// and by the relay layer after its retry budget is exhausted.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int           // HTTP status, 0 when not applicable
	RetryAfter time.Duration // server-specified delay, 0 when absent
	Err        error         // underlying cause, optional
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (http %d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth another attempt.
func (e *Error) Retryable() bool {
	return e.Kind == ErrKindTransient || e.Kind == ErrKindRateLimited
}

// IsRetryable reports whether err is a classified retryable failure.
// Uses errors.As to handle wrapped errors.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// RetryAfterOf extracts a server-specified retry delay, or 0.
func RetryAfterOf(err error) time.Duration {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

// KindOf returns the classification of err, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// NewTransient builds a transient network error.
func NewTransient(msg string, cause error) *Error {
	return &Error{Kind: ErrKindTransient, Message: msg, Err: cause}
}

// NewRateLimited builds a rate-limit error carrying the server delay.
func NewRateLimited(msg string, retryAfter time.Duration) *Error {
	return &Error{Kind: ErrKindRateLimited, Message: msg, StatusCode: 429, RetryAfter: retryAfter}
}

// NewAuth builds an authentication failure.
func NewAuth(msg string) *Error {
	return &Error{Kind: ErrKindAuth, Message: msg, StatusCode: 401}
}

// NewValidation builds a request-rejected failure.
func NewValidation(msg string) *Error {
	return &Error{Kind: ErrKindValidation, Message: msg, StatusCode: 400}
}

// FromStatus classifies an HTTP status code into an Error. retryAfter is
// honored only for 429 responses. ok statuses return nil.
func FromStatus(status int, body string, retryAfter time.Duration) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 429:
		return &Error{Kind: ErrKindRateLimited, Message: body, StatusCode: status, RetryAfter: retryAfter}
	case status == 502 || status == 503 || status == 504:
		return &Error{Kind: ErrKindTransient, Message: body, StatusCode: status}
	case status == 401 || status == 403:
		return &Error{Kind: ErrKindAuth, Message: body, StatusCode: status}
	case status >= 400 && status < 500:
		return &Error{Kind: ErrKindValidation, Message: body, StatusCode: status}
	default:
		// Remaining 5xx: treat as transient, the server may recover.
		return &Error{Kind: ErrKindTransient, Message: body, StatusCode: status}
	}
}
