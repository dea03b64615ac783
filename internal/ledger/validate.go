package ledger

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput checks the struct tags of in, the failures are returned as
// a BAD_REQUEST with one detail per field
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.BadRequest("invalid input: %v", err)
	}
	details := make([]string, 0, len(ve))
	for _, e := range ve {
		switch e.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", e.Field()))
		case "oneof":
			details = append(details, fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		case "min", "gte":
			details = append(details, fmt.Sprintf("%s must be >= %s", e.Field(), e.Param()))
		case "max", "lte":
			details = append(details, fmt.Sprintf("%s must be <= %s", e.Field(), e.Param()))
		default:
			details = append(details, fmt.Sprintf("%s failed the %s check", e.Field(), e.Tag()))
		}
	}
	return apperrors.Invalid(details)
}
