package pregel

import (
	"errors"
	"fmt"
)

// Error represents a failure detected by the engine or raised by user code.
//
// Every Error is fatal to the computation it occurred in. The scheduler
// stops all partitions, releases its workers, and returns the first Error
// it observed; no partial results are produced.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Property is the node property involved, if any.
	Property string

	// Node is the node id involved, or -1.
	Node int64

	// Superstep is the superstep during which the error occurred, or -1.
	Superstep int

	// Err is the underlying cause (user error, recovered panic, context error).
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeSchemaInvalid indicates a duplicate key, unknown value type or bad default.
	ErrCodeSchemaInvalid ErrorCode = "SCHEMA_INVALID"

	// ErrCodeTypeMismatch indicates a property was accessed as the wrong value type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeOutOfRange indicates a node id outside [0, nodeCount).
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrCodeUnknownProperty indicates a property key not declared by the schema,
	// or a private property requested from a completed result.
	ErrCodeUnknownProperty ErrorCode = "UNKNOWN_PROPERTY"

	// ErrCodeUserCode indicates init, compute or master compute failed.
	ErrCodeUserCode ErrorCode = "USER_CODE"

	// ErrCodeCanceled indicates the computation was canceled before it halted.
	ErrCodeCanceled ErrorCode = "CANCELED"

	// ErrCodeConfigInvalid indicates an invalid engine configuration.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Property != "" {
		msg += fmt.Sprintf(" (property=%s)", e.Property)
	}
	if e.Node >= 0 {
		msg += fmt.Sprintf(" (node=%d)", e.Node)
	}
	if e.Superstep >= 0 {
		msg += fmt.Sprintf(" (superstep=%d)", e.Superstep)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Node: -1, Superstep: -1}
}

func schemaError(key, format string, args ...any) *Error {
	e := newError(ErrCodeSchemaInvalid, fmt.Sprintf(format, args...))
	e.Property = key
	return e
}

func typeMismatch(key string, declared, requested ValueType) *Error {
	e := newError(ErrCodeTypeMismatch, fmt.Sprintf("property declared as %s, accessed as %s", declared, requested))
	e.Property = key
	return e
}

func unknownProperty(key string) *Error {
	e := newError(ErrCodeUnknownProperty, "property not declared by schema")
	e.Property = key
	return e
}

func outOfRange(node, nodeCount int64) *Error {
	e := newError(ErrCodeOutOfRange, fmt.Sprintf("node id outside [0, %d)", nodeCount))
	e.Node = node
	return e
}

func configError(format string, args ...any) *Error {
	return newError(ErrCodeConfigInvalid, fmt.Sprintf(format, args...))
}

// userError wraps a failure raised by a computation hook. Engine errors raised
// through a context (type mismatch, out of range) keep their own code; only the
// superstep and node are filled in.
func userError(hook string, superstep int, node int64, cause error) *Error {
	var pe *Error
	if errors.As(cause, &pe) && pe.Code != ErrCodeUserCode {
		if pe.Superstep < 0 {
			pe.Superstep = superstep
		}
		if pe.Node < 0 {
			pe.Node = node
		}
		return pe
	}
	e := newError(ErrCodeUserCode, hook+" failed")
	e.Superstep = superstep
	e.Node = node
	e.Err = cause
	return e
}

func canceledError(superstep int, cause error) *Error {
	e := newError(ErrCodeCanceled, "computation canceled before halting")
	e.Superstep = superstep
	e.Err = cause
	return e
}

func hasCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsSchemaError returns true if err is a schema resolution error.
func IsSchemaError(err error) bool { return hasCode(err, ErrCodeSchemaInvalid) }

// IsTypeMismatch returns true if err is a property type mismatch.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// IsOutOfRange returns true if err reports a node id outside the graph.
func IsOutOfRange(err error) bool { return hasCode(err, ErrCodeOutOfRange) }

// IsUnknownProperty returns true if err reports an undeclared or private property.
func IsUnknownProperty(err error) bool { return hasCode(err, ErrCodeUnknownProperty) }

// IsUserError returns true if err was raised by a computation hook.
func IsUserError(err error) bool { return hasCode(err, ErrCodeUserCode) }

// IsCanceled returns true if the computation was canceled rather than failed.
// Uses errors.As to handle wrapped errors.
func IsCanceled(err error) bool { return hasCode(err, ErrCodeCanceled) }

// IsConfigError returns true if err reports an invalid configuration.
func IsConfigError(err error) bool { return hasCode(err, ErrCodeConfigInvalid) }
