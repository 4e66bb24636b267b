package cipher

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeObjectNotFound     = "OBJECT_NOT_FOUND"
	ErrCodeFunctionNotFound   = "FUNCTION_NOT_FOUND"
	ErrCodePatternMismatch    = "PATTERN_MISMATCH"
	ErrCodeOperandParse       = "OPERAND_PARSE_FAILED"
	ErrCodeVersionNotFound    = "VERSION_NOT_FOUND"
	ErrCodeScriptFetch        = "SCRIPT_FETCH_FAILED"
	ErrCodeOperandOutOfRange  = "OPERAND_OUT_OF_RANGE"
	ErrCodeUnknownOperation   = "UNKNOWN_OPERATION"
	ErrCodeInvalidPatternSpec = "INVALID_PATTERN"
)

// Error represents a structured error with code and details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	err error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Details)
	}
	if e.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// wrapError is NewError with a cause.
func wrapError(code string, message string, cause error, details ...any) *Error {
	e := NewError(code, message, details...)
	e.err = cause
	return e
}

func asError(err error) (*Error, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}

func hasCode(err error, codes ...string) bool {
	e, ok := asError(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

// IsObjectNotFound returns true if the operations object could not be located or confirmed.
func IsObjectNotFound(err error) bool {
	return hasCode(err, ErrCodeObjectNotFound)
}

// IsFunctionNotFound returns true if the decipher function could not be located.
func IsFunctionNotFound(err error) bool {
	return hasCode(err, ErrCodeFunctionNotFound)
}

// IsPatternMismatch returns true if the shapes matched but no token sequence could be derived.
func IsPatternMismatch(err error) bool {
	return hasCode(err, ErrCodePatternMismatch)
}

// IsOperandParse returns true if a numeric literal in the call sequence was not a valid operand.
func IsOperandParse(err error) bool {
	return hasCode(err, ErrCodeOperandParse)
}

// IsExtractionError returns true for any failure of the static extraction pipeline.
func IsExtractionError(err error) bool {
	return hasCode(err, ErrCodeObjectNotFound, ErrCodeFunctionNotFound, ErrCodePatternMismatch, ErrCodeOperandParse)
}

// IsFetchError returns true if the script could not be located or downloaded.
func IsFetchError(err error) bool {
	return hasCode(err, ErrCodeScriptFetch, ErrCodeVersionNotFound)
}

// IsTransformError returns true if a token sequence could not be applied to a cipher.
func IsTransformError(err error) bool {
	return hasCode(err, ErrCodeOperandOutOfRange, ErrCodeUnknownOperation)
}
