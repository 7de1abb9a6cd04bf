// Package hosterr defines the failure categories of the native messaging host.
//
// Only Framing errors are fatal to the message loop.  Every other kind is
// caught by the dispatcher and reported to the browser as a failure response.
package hosterr

import (
	"errors"
	"fmt"
)

// Kind classifies a host failure.
type Kind int

const (
	// Framing is a malformed or truncated length-prefixed frame.
	Framing Kind = iota + 1
	// Protocol is a well-formed frame carrying an undecodable request.
	Protocol
	// Resolution means no Everything executable could be found.
	Resolution
	// Validation means a candidate path failed the executable checks.
	Validation
	// Launch means the OS refused to create the search process.
	Launch
	// Persistence means the configuration file could not be written.
	Persistence
)

var kindNames = map[Kind]string{
	Framing:     "framing",
	Protocol:    "protocol",
	Resolution:  "resolution",
	Validation:  "validation",
	Launch:      "launch",
	Persistence: "persistence",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a categorized host failure with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind caused by err.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
