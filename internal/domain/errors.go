package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport boundary.
type Kind int

const (
	// KindBackend is any store failure not otherwise classified.
	KindBackend Kind = iota
	// KindValidation is a malformed or inconsistent request.
	KindValidation
	// KindNotFound is a missing collection or resource.
	KindNotFound
	// KindConflict is a duplicate resource.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "backend"
	}
}

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalid signals a request that violates a precondition.
	ErrInvalid = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrTimeout signals a store call that exceeded its deadline.
	ErrTimeout = errors.New("store operation timed out")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Error is the tagged error returned by the adapter and services.
// Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewNotFound creates a KindNotFound error.
func NewNotFound(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: KindNotFound, Message: msg, Err: ErrNotFound}
}

// NewConflict creates a KindConflict error.
func NewConflict(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: KindConflict, Message: msg, Err: ErrAlreadyExists}
}

// NewValidation creates a KindValidation error with optional field details.
func NewValidation(msg string, details ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details, Err: ErrInvalid}
}

// NewBackend wraps a store failure.
func NewBackend(err error) *Error {
	return &Error{Kind: KindBackend, Message: err.Error(), Err: err}
}

// CollectionMissing is the canonical outcome for operations on an absent collection.
func CollectionMissing(name string) *Error {
	return NewNotFound("Collection '%s' does not exist.", name)
}

// KindOf reports the kind of err. Untagged errors are KindBackend
// unless they wrap one of the package sentinels.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrVectorDimMismatch):
		return KindValidation
	default:
		return KindBackend
	}
}
