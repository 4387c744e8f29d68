package models

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks every field constraint and returns a *ValidationError
// listing all violations, or nil. Values are never trimmed or rewritten.
func (in AlertInput) Validate() error {
	return validateStruct(in)
}

// validateStruct runs the validate tags of s and translates failures into a
// *ValidationError, one violation per field in declaration order.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), "%s", violationMessage(fe))
	}
	return verr.OrNil()
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.String {
			return "must not be empty"
		}
		return "field required"
	case "max":
		if s, ok := fe.Value().(string); ok {
			return fmt.Sprintf("must be at most %s characters (got %d)", fe.Param(), utf8.RuneCountInString(s))
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "finite":
		return "must be a finite number"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
