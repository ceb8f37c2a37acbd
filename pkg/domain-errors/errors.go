// Package domainerrors provides coded errors shared by services and transports.
//
// Services attach a Code so the HTTP layer can map failures to statuses without
// string matching, and so callers can branch on the kind of failure
// (HasCode) while still unwrapping the underlying cause (errors.Is/As).
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and caller branching.
type Code string

// Generic codes shared by every module.
const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Lease lifecycle and financial-engine codes. Calculators return these
// synchronously with no partial mutation; the state machine itself never
// produces them (CodeInvalidTransition exists for defensive checks only).
const (
	CodeInvalidTransition      Code = "invalid_transition"
	CodeMethodMismatch         Code = "method_mismatch"
	CodeInvalidNoticeDate      Code = "invalid_notice_date"
	CodeInvalidIndex           Code = "invalid_index"
	CodeInvalidDateRange       Code = "invalid_date_range"
	CodeRetainedExceedsDeposit Code = "retained_exceeds_deposit"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the cause chain.
// Wrapping nil returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	for errors.As(err, &coded) {
		if coded.Code == code {
			return true
		}
		err = coded.cause
	}
	return false
}

// Is is an alias for HasCode kept for readability at call sites that branch
// on a single code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}
