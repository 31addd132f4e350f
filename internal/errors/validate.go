package errors

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Check validates a single value against validator tags and reports a
// failure as a ValidationError on field.
func Check(field string, value any, tags string) error {
	err := validate.Var(value, tags)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return &ValidationError{Field: field, Message: msg, Err: err}
	}
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}
