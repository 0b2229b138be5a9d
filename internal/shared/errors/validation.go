package errors

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UseJSONFieldNames makes gin's validator report fields by their JSON name.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
}

// FieldErrors flattens validator failures into field -> rule messages. It
// reports false when err is not a validation failure.
func FieldErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = "failed on the '" + rule + "' rule"
	}
	return fields, true
}

// BindingProblem converts a gin binding error into a problem: field errors
// for validation failures, a plain bad request otherwise.
func BindingProblem(err error) ProblemDetail {
	if fields, ok := FieldErrors(err); ok {
		return NewValidationProblem(fields)
	}
	return ErrBadRequest.WithDetail(err.Error())
}
