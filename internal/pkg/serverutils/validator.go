package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and returns ValidationErrors
// untouched so ErrorHandlerMiddleware can render them per field.
func ValidateRequest(req any) error {
	return validate.Struct(req)
}

func validationMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "max":
			out[field] = fmt.Sprintf("must be at most %s characters", fe.Param())
		case "min":
			out[field] = fmt.Sprintf("must be at least %s characters", fe.Param())
		default:
			out[field] = fmt.Sprintf("failed on %s", fe.Tag())
		}
	}
	return out
}
