package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var dateRE = regexp.MustCompile(`^\d{4}-(0[0-9]|1[0-2])-(0[0-9]|1[0-9]|2[0-9]|3[0-1])$`)

// dateValidator accepts YYYY-MM-DD. An empty string passes so optional date
// filters can be left blank.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || dateRE.MatchString(value)
}
