package core

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidParams is the cause of every ValidationError built from run parameters.
var ErrInvalidParams = errors.New("invalid run parameters")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	if len(err.Fields) == 0 {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fe := range err.Fields {
		msgs = append(msgs, fe.Field+": "+fe.Error)
	}
	return err.Err.Error() + " (" + strings.Join(msgs, "; ") + ")"
}

func (err ValidationError) Unwrap() error { return err.Err }

// IsValidation reports whether the cause of err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
