package feedback

import (
	"errors"
	"fmt"
)

var (
	// row error kinds
	ErrCodeFormat      = errors.New("student code is not numeric")
	ErrCodeNotFound    = errors.New("student code not found")
	ErrEmailNotMatched = errors.New("email not matched")
)

// RowError reports the first malformed submission of a run.
type RowError struct {
	Kind      error
	Row       int
	Evaluator string
	Code      string
	Recipient string
	Hint      string // closest known code, if any
}

func (e *RowError) Error() string {
	switch e.Kind {
	case ErrCodeFormat:
		return fmt.Sprintf("student code %q was not a numerical value in row %d, form submitted by %s", e.Code, e.Row, e.Evaluator)
	case ErrCodeNotFound:
		msg := fmt.Sprintf("student code %s was not in the list of codes in row %d, form submitted by %s", e.Code, e.Row, e.Evaluator)
		if e.Hint != "" {
			msg += fmt.Sprintf(" (closest known code: %s)", e.Hint)
		}
		return msg
	case ErrEmailNotMatched:
		return fmt.Sprintf("email address %s does not have a match in the list of student emails (row %d, form submitted by %s)", e.Recipient, e.Row, e.Evaluator)
	default:
		return fmt.Sprintf("row %d, form submitted by %s: %v", e.Row, e.Evaluator, e.Kind)
	}
}

func (e *RowError) Unwrap() error { return e.Kind }
