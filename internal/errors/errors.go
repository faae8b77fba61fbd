// Package errors provides error types shared across frenzy: panic
// recovery for handler isolation, multi-error collection for shutdown
// paths, and the typed failures raised by the view engine.
package errors

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError wraps a recovered panic with its stack trace.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and converts a panic into a *PanicError.
// Handler dispatch uses this so one misbehaving handler cannot take
// down the others.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Value:      r,
				StackTrace: string(debug.Stack()),
			}
		}
	}()
	return fn()
}

// MultiError collects errors from independent operations.
type MultiError struct {
	Errors []error
}

// Append adds an error to the collection. Nil errors are ignored.
func (m *MultiError) Append(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were collected, the single
// error if exactly one was, and the MultiError itself otherwise.
func (m *MultiError) ErrorOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(m.Errors), strings.Join(msgs, "; "))
}

// NotFoundError reports a failed lookup (a block id missing from a
// view tree, an unknown campaign id).
type NotFoundError struct {
	Kind string // what was looked up, e.g. "block" or "campaign"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// MalformedMetadataError reports an unparseable view metadata blob.
// Metadata decode failures are fatal to the step and reported to the
// user rather than silently reset.
type MalformedMetadataError struct {
	Err error
}

func (e *MalformedMetadataError) Error() string {
	return fmt.Sprintf("malformed view metadata: %v", e.Err)
}

func (e *MalformedMetadataError) Unwrap() error {
	return e.Err
}

// RemoteUpdateError reports a failed outbound render call. Callers log
// these and continue; the local mutation has already happened.
type RemoteUpdateError struct {
	Op  string // e.g. "views.update"
	Err error
}

func (e *RemoteUpdateError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteUpdateError) Unwrap() error {
	return e.Err
}
