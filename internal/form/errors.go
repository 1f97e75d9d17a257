package form

import (
	"errors"

	"github.com/dukerupert/pinfill/internal/domain"
)

// ErrNotReady matches errors returned when a form is submitted before gating passes.
// The returned error also unwraps to a *domain.ValidationError naming the fields.
var ErrNotReady = errors.New("form: address is not ready to submit")

type notReadyError struct {
	fields *domain.ValidationError
}

func newNotReady(op string, fields map[string]string) error {
	return &notReadyError{fields: domain.NewValidationError(op, fields)}
}

func (e *notReadyError) Error() string        { return e.fields.Error() }
func (e *notReadyError) Unwrap() error        { return e.fields }
func (e *notReadyError) Is(target error) bool { return target == ErrNotReady }
