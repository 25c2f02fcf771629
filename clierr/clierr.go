// Package clierr defines the error taxonomy of the command line tool. Every
// failure a command can report carries one of the codes below; the code is
// also the process exit status.
package clierr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code classifies a failure.
type Code int

const (
	Panic Code = iota + 1
	CannotResolve
	MissingCommand
	CommandNotFound
	MissingArgument
	InvalidArgument
	InvalidJSON
	CannotConnect
	Timeout
	Canceled
	RemoteError
	CallFailed
	InvalidMessage
	ConnectionClosed

	maxCode
)

var names = [...]string{
	Panic:            "Panic",
	CannotResolve:    "CannotResolve",
	MissingCommand:   "MissingCommand",
	CommandNotFound:  "CommandNotFound",
	MissingArgument:  "MissingArgument",
	InvalidArgument:  "InvalidArgument",
	InvalidJSON:      "InvalidJson",
	CannotConnect:    "CannotConnect",
	Timeout:          "Timeout",
	Canceled:         "Canceled",
	RemoteError:      "RemoteError",
	CallFailed:       "CallFailed",
	InvalidMessage:   "InvalidMessage",
	ConnectionClosed: "ConnectionClosed",
}

func (c Code) String() string {
	if c <= 0 || c >= maxCode {
		return "<invalid>"
	}
	return names[c]
}

// Codes lists all codes in exit status order.
func Codes() []Code {
	codes := make([]Code, 0, maxCode-1)
	for c := Panic; c < maxCode; c++ {
		codes = append(codes, c)
	}
	return codes
}

// Error is a failure tagged with a Code.
type Error struct {
	Code Code
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.Code.String()
	}
	return e.err.Error()
}

// Cause returns the wrapped error for github.com/pkg/errors.
func (e *Error) Cause() error { return e.err }

func (e *Error) Unwrap() error { return e.err }

// New creates an error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, err: errors.New(message)}
}

// Newf creates an error with the given code and formatted message.
func Newf(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, err: errors.Errorf(format, args...)}
}

// Wrap annotates err with message and tags it with code. A nil err yields nil.
func Wrap(code Code, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: errors.Wrap(err, message)}
}

// Wrapf is Wrap with a format string.
func Wrapf(code Code, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: errors.Wrapf(err, format, args...)}
}

// CodeOf returns the code carried by err. Untagged errors are Panic, nil is 0.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Panic
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Describe renders a code for help listings.
func Describe(c Code) string {
	return fmt.Sprintf("%3d %s", int(c), c)
}
