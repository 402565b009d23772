package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error independently of the transport.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindInvalidRequest  Kind = "INVALID_REQUEST"
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	KindConflict        Kind = "CONFLICT"
	KindInternal        Kind = "INTERNAL"
)

// Error is a domain error carrying its kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewNotFoundError reports a missing entity of the given type.
func NewNotFoundError(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s with id '%s' not found", entity, id)}
}

// NewNotFound reports absence with a custom message. Authorization failures that
// must not leak existence are reported this way too.
func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewInvalidRequest reports a violated domain rule.
func NewInvalidRequest(message string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message}
}

// NewInvalidArgument reports a malformed request parameter.
func NewInvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

// NewConflictError reports a concurrent modification or uniqueness violation.
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsInvalidRequest reports whether err is an InvalidRequest error.
func IsInvalidRequest(err error) bool { return err != nil && KindOf(err) == KindInvalidRequest }

// IsInvalidArgument reports whether err is an InvalidArgument error.
func IsInvalidArgument(err error) bool { return err != nil && KindOf(err) == KindInvalidArgument }

// IsConflict reports whether err is a Conflict error.
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }
