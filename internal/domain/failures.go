package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies errors the core reports to callers.
type FailureKind int

const (
	// KindValidation is bad input the caller can correct.
	KindValidation FailureKind = iota + 1
	// KindConflict is an overlap with an approved reservation or academy block.
	KindConflict
	// KindState is an operation on a reservation in the wrong status.
	KindState
	// KindNotFound is a missing reservation, area or user.
	KindNotFound
	// KindAuthorization is a restricted mutation attempted by the wrong actor.
	KindAuthorization
)

func (k FailureKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	default:
		return "unknown"
	}
}

// Failure is a structured, user-facing error. Field names the offending input when known.
type Failure struct {
	Kind    FailureKind
	Code    string
	Field   string
	Message string
	Cause   error

	// Conflicts lists the blocks that caused a KindConflict failure.
	Conflicts []Block
}

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation   = &Failure{Kind: KindValidation}
	ErrConflict     = &Failure{Kind: KindConflict}
	ErrState        = &Failure{Kind: KindState}
	ErrNotFound     = &Failure{Kind: KindNotFound}
	ErrUnauthorized = &Failure{Kind: KindAuthorization}
)

func (e *Failure) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func (e *Failure) Unwrap() error {
	return e.Cause
}

// Is matches any Failure of the same kind, so errors.Is(err, ErrConflict) works
// regardless of code or message.
func (e *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewValidationFailure(field, code, message string) *Failure {
	return &Failure{Kind: KindValidation, Field: field, Code: code, Message: message}
}

func NewConflictFailure(message string, conflicts []Block) *Failure {
	return &Failure{Kind: KindConflict, Field: "starts_at", Code: "schedule_conflict", Message: message, Conflicts: conflicts}
}

func NewStateFailure(code, message string) *Failure {
	return &Failure{Kind: KindState, Field: "status", Code: code, Message: message}
}

func NewNotFoundFailure(entity, message string) *Failure {
	return &Failure{Kind: KindNotFound, Field: entity, Code: entity + "_not_found", Message: message}
}

func NewAuthorizationFailure(code, message string) *Failure {
	return &Failure{Kind: KindAuthorization, Code: code, Message: message}
}

// AsFailure extracts the Failure from err, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
