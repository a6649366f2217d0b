package schema

import (
	"errors"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ErrorKind classifies an upload failure so callers can branch on kind
// rather than on message text.
type ErrorKind string

// Error is an upload failure for one file or batch.
type Error struct {
	Kind   ErrorKind
	File   string // optional: the file the error refers to
	Detail string // optional: human-readable detail
	Err    error  // optional: underlying cause
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	KindPlanning      ErrorKind = "planning"
	KindTransport     ErrorKind = "transport"
	KindAuthorization ErrorKind = "authorization"
	KindTransfer      ErrorKind = "transfer"
	KindRegistration  ErrorKind = "registration"
	KindAborted       ErrorKind = "aborted"
	KindCancelled     ErrorKind = "cancelled"
)

var (
	ErrPlanning      = errors.New("planning error")
	ErrTransport     = errors.New("transport error")
	ErrAuthorization = errors.New("authorization error")
	ErrTransfer      = errors.New("transfer error")
	ErrRegistration  = errors.New("registration error")
	ErrAborted       = errors.New("aborted")
	ErrCancelled     = errors.New("cancelled")

	ErrBadParameter  = errors.New("bad parameter")
	ErrFileTooLarge  = errors.New("file too large")
	ErrDuplicateFile = errors.New("duplicate file name")
)

var kinds = map[ErrorKind]error{
	KindPlanning:      ErrPlanning,
	KindTransport:     ErrTransport,
	KindAuthorization: ErrAuthorization,
	KindTransfer:      ErrTransfer,
	KindRegistration:  ErrRegistration,
	KindAborted:       ErrAborted,
	KindCancelled:     ErrCancelled,
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewError returns an error of the given kind. The detail is formatted
// with args when any are given.
func NewError(kind ErrorKind, file string, err error, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Kind: kind, File: file, Detail: detail, Err: err}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e *Error) Error() string {
	msg := string(e.Kind)
	if sentinel, exists := kinds[e.Kind]; exists {
		msg = sentinel.Error()
	}
	if e.File != "" {
		msg += fmt.Sprintf(" (%q)", e.File)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the kind, so that
// errors.Is(err, ErrTransport) works for any transport error.
func (e *Error) Is(target error) bool {
	if sentinel, exists := kinds[e.Kind]; exists {
		return sentinel == target
	}
	return false
}

// KindOf returns the kind of err, or the empty kind when err is not an
// upload error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Failure converts err into a FailedFile record for name.
func Failure(name string, kind ErrorKind, err error) FailedFile {
	f := FailedFile{Name: name, Kind: kind}
	var e *Error
	if errors.As(err, &e) {
		if e.Kind != "" {
			f.Kind = e.Kind
		}
		f.Detail = e.Detail
		if f.Detail == "" && e.Err != nil {
			f.Detail = e.Err.Error()
		}
	} else if err != nil {
		f.Detail = err.Error()
	}
	return f
}
