package protocol

import (
	"errors"
	"fmt"
)

// ErrorCode is the numeric rejection code carried by error responses.
type ErrorCode int

const (
	ErrCodeUnspecified        ErrorCode = 0
	ErrCodeQuizNotFound       ErrorCode = 1
	ErrCodeInvalidValue       ErrorCode = 2
	ErrCodePlayerLimitReached ErrorCode = 3
	ErrCodeNotAllowed         ErrorCode = 4
	ErrCodeUnknownCommand     ErrorCode = 5
	ErrCodeMissingField       ErrorCode = 6
	ErrCodeNotConnected       ErrorCode = 7
	ErrCodeAlreadyAnswered    ErrorCode = 8
	ErrCodeEmptyResult        ErrorCode = 9
	ErrCodeInternalServer     ErrorCode = 255
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnspecified:
		return "unspecified error"
	case ErrCodeQuizNotFound:
		return "quiz not found"
	case ErrCodeInvalidValue:
		return "invalid value"
	case ErrCodePlayerLimitReached:
		return "player limit reached"
	case ErrCodeNotAllowed:
		return "not allowed"
	case ErrCodeUnknownCommand:
		return "unknown command"
	case ErrCodeMissingField:
		return "missing field"
	case ErrCodeNotConnected:
		return "not connected"
	case ErrCodeAlreadyAnswered:
		return "already answered"
	case ErrCodeEmptyResult:
		return "empty result"
	case ErrCodeInternalServer:
		return "internal server error"
	default:
		return fmt.Sprintf("error code %d", int(c))
	}
}

// CommandError is a rejected command: the backend processed it and said
// no. It does not invalidate the connection.
type CommandError struct {
	Code    ErrorCode
	Details string
}

func (e *CommandError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("command rejected: %s (%s)", e.Code, e.Details)
	}
	return fmt.Sprintf("command rejected: %s", e.Code)
}

// RejectedWith reports whether err is a command rejection with the given
// code. Used by the player flow to treat "already answered" as success.
func RejectedWith(err error, code ErrorCode) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == code
}

// ValidationError is a client-side constraint violation, caught before
// anything reaches the wire.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
