package problemgen

import (
	"errors"
	"fmt"
)

// ErrGenerationUnavailable is returned only when the caller gave up before a
// problem could be produced. Collaborator failures never surface; they are
// absorbed by the fallback.
var ErrGenerationUnavailable = errors.New("problem generation unavailable")

// ParseError describes why a collaborator payload was rejected.
type ParseError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse problem"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError describes why a decoded problem failed a check.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
