package pollerrors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrPollClosed             = errors.New("poll is closed")
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("not found")
	ErrChoiceNotFound         = errors.New("choice not found")
	ErrChoiceQuestionMismatch = errors.New("choice does not belong to this question")
	ErrConflict               = errors.New("conflict")
	ErrAlreadyExists          = errors.New("already exists")
	ErrRateLimited            = errors.New("rate limited")
)

// HTTPStatus maps the error taxonomy to response status codes.
// Unauthenticated requests map to 403 to match the original API contract
// (DRF-style), not 401.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrChoiceQuestionMismatch):
		return 400
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden), errors.Is(err, ErrPollClosed):
		return 403
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrChoiceNotFound):
		return 404
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return 409
	case errors.Is(err, ErrRateLimited):
		return 429
	default:
		return 500
	}
}

// Code returns the machine-readable error kind for response bodies.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrChoiceQuestionMismatch):
		return "CHOICE_QUESTION_MISMATCH"
	case errors.Is(err, ErrInvalidInput):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrPollClosed):
		return "POLL_CLOSED"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrChoiceNotFound):
		return "CHOICE_NOT_FOUND"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
