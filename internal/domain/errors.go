package domain

import "errors"

var (
	ErrValidation                = errors.New("validation error")
	ErrInvalidDate               = errors.New("invalid date")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrNotFound                  = errors.New("not found")
	ErrUnavailable               = errors.New("unavailable")
	ErrAlreadyCancelled          = errors.New("already cancelled")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrInternal                  = errors.New("internal error")
)

// Outcome codes surfaced to callers. Front-ends key follow-up prompts off these.
const (
	CodeOK              = "ok"
	CodeValidation      = "validation_error"
	CodeInvalidDate     = "invalid_date"
	CodeInvalidEmail    = "invalid_email"
	CodeNotFound        = "not_found"
	CodeUnavailable     = "unavailable"
	CodeAlreadyCanceled = "already_cancelled"
	CodeWindowExpired   = "cancellation_window_expired"
	CodeInternal        = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrValidation, CodeValidation},
	{ErrInvalidDate, CodeInvalidDate},
	{ErrInvalidEmail, CodeInvalidEmail},
	{ErrNotFound, CodeNotFound},
	{ErrUnavailable, CodeUnavailable},
	{ErrAlreadyCancelled, CodeAlreadyCanceled},
	{ErrCancellationWindowExpired, CodeWindowExpired},
}

// Code maps err to its outcome code. Nil is ok; anything unclassified is internal.
func Code(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
