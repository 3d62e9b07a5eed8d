package usecase

import (
	"errors"
	"fmt"

	"aura-chat/internal/domain"
)

// ErrorCode classifies a chat failure. Only INVALID_INPUT reaches the caller
// as a distinct text; every other code collapses into the generic retry text.
type ErrorCode string

const (
	ErrorInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrorProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrorUpstream            ErrorCode = "UPSTREAM_ERROR"
)

var userTexts = map[ErrorCode]string{
	ErrorInvalidInput: domain.MessageRequiredText,
}

// Error carries the code, a short machine-readable reason for logs, and the
// underlying cause. The cause is never shown to the caller.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s/%s", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s/%s: %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserText is the fixed text the caller sees for this failure.
func (e *Error) UserText() string {
	if e == nil {
		return domain.GenericErrorText
	}
	if text, ok := userTexts[e.Code]; ok {
		return text
	}
	return domain.GenericErrorText
}

// UserText maps any error returned by ChatService to the text shown to the
// caller. Errors that are not *Error get the generic text.
func UserText(err error) string {
	var ucErr *Error
	if errors.As(err, &ucErr) {
		return ucErr.UserText()
	}
	return domain.GenericErrorText
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
