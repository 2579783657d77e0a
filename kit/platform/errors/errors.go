package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Error codes.
const (
	EInternal       = "internal error"
	ENotImplemented = "not implemented"
	ENotFound       = "not found"
	EConflict       = "conflict" // bin already exists
	EInvalid        = "invalid"  // operation cannot be applied to the stored value

	// EInvalidParam reports a missing or mis-typed required descriptor field.
	EInvalidParam = "invalid param"
	// EParam reports a failure while parsing a nested descriptor field: the
	// policy, the context path, the value list, or a serializer.
	EParam = "param error"
	// EUnknownOperation reports an operation code no handler exists for.
	EUnknownOperation = "unknown operation"
)

// Error is the error type of hllop.
//
// The Code targets automated handlers so that recovery can occur.
// Msg is the human-readable description surfaced to callers.
// Op and Err chain errors together in a logical stack trace.
//
// To create a simple error,
//
//	&Error{
//	    Code: EInvalidParam,
//	    Msg:  "index_bit_count must be an integer",
//	}
//
// To show where the error happens, add Op.
//
//	&Error{
//	    Code: EParam,
//	    Op:   "operate/Builder.Build",
//	    Err:  err,
//	}
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

// Error implements the error interface by writing out the recursive messages.
func (e *Error) Error() string {
	if e.Msg != "" && e.Err != nil {
		var b strings.Builder
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
		return b.String()
	} else if e.Msg != "" {
		return e.Msg
	} else if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("<%s>", e.Code)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the root error, if available; otherwise returns EInternal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return EInternal
	}

	if e == nil {
		return ""
	}

	if e.Code != "" {
		return e.Code
	}

	if e.Err != nil {
		return ErrorCode(e.Err)
	}

	return EInternal
}

// ErrorOp returns the op of the first *Error in err's chain that has one,
// or an empty string.
func ErrorOp(err error) string {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) || e == nil {
			return ""
		}
		if e.Op != "" {
			return e.Op
		}
		err = e.Err
	}
	return ""
}

// ErrorMessage returns the human-readable message of the first *Error in
// err's chain that has one. Otherwise it returns a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) || e == nil {
			break
		}
		if e.Msg != "" {
			return e.Msg
		}
		err = e.Err
	}
	return "An internal error has occurred."
}
