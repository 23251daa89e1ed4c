package plugin

import (
	"fmt"
)

// Error codes returned to the host.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeInternalError   = "internal_error"
	CodeNotSupported    = "not_supported"
	// CodeCancelled is part of the host contract but never sent: a user
	// cancelling a region selection is reported as a success with no value.
	CodeCancelled = "cancelled"
)

// Error is a structured failure reported to the host.
type Error struct {
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidArgument(msg string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

func internalError(msg string, details any) *Error {
	return &Error{Code: CodeInternalError, Message: msg, Details: details}
}

// ReplyKind says which of the three reply forms a Reply is.
type ReplyKind int

const (
	ReplySuccess ReplyKind = iota
	ReplyError
	ReplyNotImplemented
)

func (k ReplyKind) String() string {
	switch k {
	case ReplySuccess:
		return "success"
	case ReplyError:
		return "error"
	case ReplyNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Reply is the single response to a MethodCall. Value is only meaningful
// for ReplySuccess and may be nil; Err is only set for ReplyError.
type Reply struct {
	Kind  ReplyKind
	Value any
	Err   *Error
}

func Success(value any) Reply { return Reply{Kind: ReplySuccess, Value: value} }

func Failure(err *Error) Reply { return Reply{Kind: ReplyError, Err: err} }

func NotImplemented() Reply { return Reply{Kind: ReplyNotImplemented} }
