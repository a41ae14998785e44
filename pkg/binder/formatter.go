package binder

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
)

// Validation tags with a dedicated message.
const (
	date     = "date"
	email    = "email"
	gt       = "gt"
	gte      = "gte"
	mx       = "max"
	mn       = "min"
	ne       = "ne"
	oneof    = "oneof"
	required = "required"
)

var timeType = reflect.TypeOf(time.Time{})

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	return fmt.Sprintf("%q should be of type %s", strings.Trim(err.Field, "."), err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	return fmt.Sprintf("%q should be of type %s", err.Key, err.Type)
}

func isNumber(k reflect.Kind) bool {
	switch k { //nolint:exhaustive
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func plural(word, n string) string {
	if n == "1" {
		return word
	}
	return word + "s"
}

// bound phrases a min/max error. Numbers compare by value, slices by element
// count and everything else by character count.
func bound(err validator.FieldError, comparison string) string {
	field, n := err.Field(), err.Param()
	switch {
	case isNumber(err.Kind()):
		return fmt.Sprintf("%q must be %s %s", field, comparison, n)
	case err.Kind() == reflect.Slice:
		return fmt.Sprintf("%q length must be %s %s %s", field, comparison, n, plural("element", n))
	}
	return fmt.Sprintf("%q length must be %s %s %s", field, comparison, n, plural("character", n))
}

func threshold(err validator.FieldError) string {
	if err.Param() == "" && err.Type() == timeType {
		return "now"
	}
	return err.Param()
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case date:
		return fmt.Sprintf("%q should be in the format of YYYY-MM-DD", field)
	case email:
		return fmt.Sprintf("%q is not a valid email", field)
	case gt:
		return fmt.Sprintf("%q must be greater than %s", field, threshold(err))
	case gte:
		return fmt.Sprintf("%q must be greater than or equal to %s", field, threshold(err))
	case mx:
		return bound(err, "less than or equal to")
	case mn:
		return bound(err, "greater than or equal to")
	case ne:
		return fmt.Sprintf("%q can't be %q", field, err.Param())
	case oneof:
		quoted := make([]string, 0)
		for _, p := range strings.Fields(err.Param()) {
			quoted = append(quoted, fmt.Sprintf("%q", p))
		}
		return fmt.Sprintf("%q must be one of the following: %s", field, strings.Join(quoted, ", "))
	case required:
		return fmt.Sprintf("%q is required", field)
	}
	return fmt.Sprintf("%q is invalid", field)
}
