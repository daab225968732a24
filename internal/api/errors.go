package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/problemgen"
)

// Error codes
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeInvalidPlay    = "INVALID_PLAY"
	ErrCodeMalformed      = "MALFORMED_ANSWER"
	ErrCodeTimeoutExpired = "TIMEOUT_EXPIRED"
	ErrCodeUnavailable    = "GENERATION_UNAVAILABLE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// AppError is an error with the HTTP status and code reported to clients.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func badRequest(message string) *AppError {
	return &AppError{Code: ErrCodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

// toAppError maps engine errors to their HTTP form. Unknown errors become
// internal errors with a generic message.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, battle.ErrBattleNotFound):
		return &AppError{Code: ErrCodeNotFound, Message: err.Error(), Status: http.StatusNotFound, Err: err}
	case errors.Is(err, battle.ErrTimeoutExpired):
		return &AppError{Code: ErrCodeTimeoutExpired, Message: "the answer window has closed", Status: http.StatusConflict, Err: err}
	case errors.Is(err, battle.ErrInvalidPlayRequest):
		return &AppError{Code: ErrCodeInvalidPlay, Message: err.Error(), Status: http.StatusConflict, Err: err}
	case errors.Is(err, battle.ErrMalformedAnswer):
		return &AppError{Code: ErrCodeMalformed, Message: "answer is empty or unreadable", Status: http.StatusUnprocessableEntity, Err: err}
	case errors.Is(err, problemgen.ErrGenerationUnavailable):
		return &AppError{Code: ErrCodeUnavailable, Message: "no problem could be generated", Status: http.StatusServiceUnavailable, Err: err}
	}
	return &AppError{Code: ErrCodeInternal, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
}
