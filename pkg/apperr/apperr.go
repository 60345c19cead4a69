// Package apperr carries machine-readable failure classifications across the topic pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can map it to a response without parsing provider text.
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindPayloadTooLarge  Kind = "payload_too_large"
	KindProvider         Kind = "provider"
	KindInsufficientData Kind = "insufficient_data"
	KindPersistence      Kind = "persistence"
	KindNaming           Kind = "naming"
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation"
	KindUnknown          Kind = "unknown"
)

// Error is the typed error returned by every fatal path in the pipeline.
// Message is safe to show to users, Hint tells them what to do, Details keeps raw provider text.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Hint    string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil && e.Message != "" {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindX}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// New builds an error with a remediation hint.
func New(kind Kind, op, message, hint string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Hint: hint}
}

// Wrap classifies err, keeping it reachable through errors.Unwrap.
func Wrap(kind Kind, op string, err error, hint string) *Error {
	return &Error{Kind: kind, Op: op, Hint: hint, Err: err}
}

// WithDetail attaches free-form context and returns the same error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// KindOf returns the classification of the first *Error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// HintOf returns the remediation hint of the first *Error in the chain.
func HintOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Hint
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
