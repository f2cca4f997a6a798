// Package errors provides the stable error taxonomy used across snowglobe.
// Every error surfaced to a wire client carries a short, stable Code and an
// HTTP status; nothing downstream of the wire layer ever invents its own.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable short code identifying an error kind. Clients key off
// this value, so it must never change meaning once shipped.
type Code string

const (
	BadRequest            Code = "BadRequest"
	Unauthenticated       Code = "Unauthenticated"
	Translation           Code = "Translation"
	NotFound              Code = "NotFound"
	AlreadyExists         Code = "AlreadyExists"
	NameInUse             Code = "NameInUse"
	NotEmpty              Code = "NotEmpty"
	Engine                Code = "Engine"
	Timeout               Code = "Timeout"
	InternalInconsistency Code = "InternalInconsistency"
	Unavailable           Code = "Unavailable"
)

// httpStatus maps each code to the HTTP status the wire layer must use.
// Per spec: every code returns 200 except Unauthenticated, which returns
// 401 because clients use it to drive re-login.
var httpStatus = map[Code]int{
	Unauthenticated: http.StatusUnauthorized,
}

// SnowglobeError is the concrete error type carried through the system.
// Reason/Suggestion are optional human-facing detail that the wire layer
// never sends; Message is the wire-facing, machine-stable string returned
// to Snowflake clients.
type SnowglobeError struct {
	code       Code
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

func (e *SnowglobeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SnowglobeError) Unwrap() error {
	return e.Cause
}

// Code returns the stable short code for this error.
func (e *SnowglobeError) Code() Code {
	return e.code
}

// HTTPStatus returns the HTTP status the wire layer should answer with.
func (e *SnowglobeError) HTTPStatus() int {
	if status, ok := httpStatus[e.code]; ok {
		return status
	}
	return http.StatusOK
}

// New constructs a SnowglobeError with the given code and message.
func New(code Code, message string) *SnowglobeError {
	return &SnowglobeError{code: code, Message: message}
}

// Newf constructs a SnowglobeError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *SnowglobeError {
	return &SnowglobeError{code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs a SnowglobeError that carries a causing error. The
// message is kept as given; WrapEngine is the constructor that builds the
// "Engine: <original>" message for engine errors.
func Wrap(code Code, message string, cause error) *SnowglobeError {
	return &SnowglobeError{code: code, Message: message, Cause: cause}
}

// WrapEngine wraps an underlying engine error per the §7 propagation rule.
func WrapEngine(cause error) *SnowglobeError {
	return &SnowglobeError{
		code:    Engine,
		Message: fmt.Sprintf("Engine: %v", cause),
		Cause:   cause,
	}
}

// WithDetail attaches operator-facing reason/suggestion text. This text is
// never sent over the wire protocol.
func (e *SnowglobeError) WithDetail(reason, suggestion string) *SnowglobeError {
	e.Reason = reason
	e.Suggestion = suggestion
	return e
}

// As extracts a *SnowglobeError from err, if any is present in its chain.
func As(err error) (*SnowglobeError, bool) {
	var se *SnowglobeError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the code of err if it (or something in its chain) is a
// *SnowglobeError, otherwise InternalInconsistency as a conservative default.
func CodeOf(err error) Code {
	if se, ok := As(err); ok {
		return se.code
	}
	return InternalInconsistency
}
