package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StructValidator plugs validator/v10 into fiber's Bind(). Field names in
// errors are the JSON names.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() *StructValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &StructValidator{v: v}
}

func (s *StructValidator) Validate(out any) error {
	return s.v.Struct(out)
}
