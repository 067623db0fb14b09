// Package errs provides the tagged error type used across pgsync.
//
// The tool distinguishes a small closed set of failure classes: metadata
// acquisition failures abort a run, validation failures carry contextual
// detail for the user, and configuration failures happen before any
// connection is opened. Formatting problems are deliberately NOT errors;
// the formatter degrades into TODO markers inside the script instead.
//
// Callers use the Is* predicates to branch on the class without depending
// on where the error was produced:
//
//	if errs.IsValidation(err) {
//	    // report and keep the exit path user-friendly
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error for propagation policy decisions.
type Kind int

const (
	KindUnknown     Kind = iota
	KindAcquisition      // catalog query or file read failed
	KindValidation       // schema missing, empty, or inputs malformed
	KindConfig           // flags, environment, or ignore file unusable
)

func (k Kind) String() string {
	switch k {
	case KindAcquisition:
		return "acquisition"
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is the error type returned by pgsync subsystems. The Cause keeps
// the driver- or io-level error reachable for errors.Is / errors.As.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is / errors.As traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message and no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an *Error with a formatted message and no cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Wrapf creates an *Error with a formatted message and an underlying cause.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsAcquisition reports whether err came from the metadata layer (catalog
// query or generated-file read). Acquisition failures abort the run.
func IsAcquisition(err error) bool {
	return KindOf(err) == KindAcquisition
}

// IsValidation reports whether err describes invalid or missing input
// (absent schema, zero tables, malformed identifier).
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsConfig reports whether err came from flag, environment, or config-file
// handling.
func IsConfig(err error) bool {
	return KindOf(err) == KindConfig
}

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
