package blockpool

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/timetable/core/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates b's mandatory fields and maps the first failure to a
// ValidationError named after the JSON field, e.g. "allocations[0].teacher_id".
func check(b model.CombinedBlock) error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return &model.ValidationError{Field: "block", Reason: err.Error()}
	}
	fe := fes[0]
	field := strings.TrimPrefix(fe.Namespace(), "CombinedBlock.")
	return &model.ValidationError{Field: field, Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("needs at least %s item(s)", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	}
	return "failed " + fe.Tag()
}
