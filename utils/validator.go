package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the validator tags on a request DTO and flattens the
// failures into one readable error
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs []string
	for _, err := range err.(validator.ValidationErrors) {
		field := strings.ToLower(err.Field())
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errs = append(errs, field+" is required")
		case "min":
			errs = append(errs, field+" must be at least "+param+" characters")
		case "max":
			errs = append(errs, field+" must be at most "+param+" characters")
		case "email":
			errs = append(errs, field+" must be a valid email")
		case "eqfield":
			errs = append(errs, field+" must match "+strings.ToLower(param))
		default:
			errs = append(errs, field+" is invalid")
		}
	}

	return errors.New(strings.Join(errs, ", "))
}
