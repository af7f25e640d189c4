// Package validation configures the struct validator shared by the
// profile and escalation packages.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports fields by their yaml key.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldPath strips the root struct name from a validator namespace, so
// "Props.journey_thresholds.engaged" becomes "journey_thresholds.engaged".
func FieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

// Describe renders the violated constraint of fe as a short phrase.
func Describe(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return fmt.Sprintf("must be >= %s", param)
	case "lte", "max":
		return fmt.Sprintf("must be <= %s", param)
	case "gt":
		return fmt.Sprintf("must be > %s", param)
	case "lt":
		return fmt.Sprintf("must be < %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", param)
	case "gtfield":
		return fmt.Sprintf("must be greater than %s", param)
	case "gtefield":
		return fmt.Sprintf("must be >= %s", param)
	case "ltfield":
		return fmt.Sprintf("must be less than %s", param)
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
