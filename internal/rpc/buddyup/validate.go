package buddyup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/buddyup/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a request's validate tags. Failures wrap domain.ErrInvalidArgument.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(parts, "; "), domain.ErrInvalidArgument)
	}
	return fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
}
