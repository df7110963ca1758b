package domain

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeConflict        Code = "CONFLICT"
	CodeValidation      Code = "VALIDATION"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInternal        Code = "INTERNAL"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches on code and message so wrapped sentinels still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func NotFound(msg string) error        { return New(CodeNotFound, msg) }
func Forbidden(msg string) error       { return New(CodeForbidden, msg) }
func Conflict(msg string) error        { return New(CodeConflict, msg) }
func Validation(msg string) error      { return New(CodeValidation, msg) }
func Unauthenticated(msg string) error { return New(CodeUnauthenticated, msg) }

func Internal(cause error) error {
	return Wrap(CodeInternal, "internal error", cause)
}

// CodeOf returns the code of the first AppError in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

var (
	ErrChannelNotFound  = NotFound("channel not found")
	ErrMessageNotFound  = NotFound("message not found")
	ErrUserNotFound     = NotFound("user not found")
	ErrTargetNotMember  = NotFound("user is not a member of this channel")
	ErrNotAdmin         = Forbidden("only the channel admin can do that")
	ErrBanned           = Forbidden("you are banned from this channel")
	ErrTargetBanned     = Forbidden("user is banned from this channel")
	ErrNotInvited       = Forbidden("this channel is private; an invitation is required")
	ErrNotMember        = Forbidden("you are not a member of this channel")
	ErrSelfVote         = Forbidden("you cannot vote to ban yourself")
	ErrTargetIsAdmin    = Forbidden("the channel admin cannot be banned")
	ErrNotAuthor        = Forbidden("only the author can change this message")
	ErrAlreadyMember    = Conflict("user is already a member of this channel")
	ErrChannelNameTaken = Conflict("channel name is already taken")

	ErrChannelNameEmpty   = Validation("channel name cannot be empty")
	ErrChannelNameTooLong = Validation("channel name is too long")
	ErrEmptyMessage       = Validation("message cannot be empty")
	ErrMessageTooLong     = Validation("message is too long")
	ErrNicknameEmpty      = Validation("nickname cannot be empty")
	ErrNicknameTooLong    = Validation("nickname is too long")
	ErrInvalidStatus      = Validation("invalid status")
	ErrInvalidPayload     = Validation("invalid payload")

	ErrInvalidToken = Unauthenticated("invalid or expired token")
)
