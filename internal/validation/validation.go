// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package validation holds the request validation rules shared by the
// handlers and services.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// phonePattern matches Nigerian mobile numbers in local format, e.g.
// 08031234567.
var phonePattern = regexp.MustCompile(`^0[7-9][0-9]{9}$`)

// PhoneNumber reports whether s is a Nigerian mobile number.
func PhoneNumber(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// New returns a validator with the "ngphone" tag registered. Errors name
// fields by their json tag when they have one.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("ngphone", func(fl validator.FieldLevel) bool {
		return PhoneNumber(fl.Field().String())
	})
	return v
}

// Email reports whether s is a syntactically valid address.
func Email(v *validator.Validate, s string) bool {
	return v.Var(s, "required,email") == nil
}

// FirstTag returns the failing tag and field of the first validation error,
// or empty strings when err is not a validation error.
func FirstTag(err error) (field, tag string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Tag()
	}
	return "", ""
}

// EchoValidator plugs a validator into echo's Context#Validate.
type EchoValidator struct {
	validate *validator.Validate
}

func NewEchoValidator() *EchoValidator {
	return &EchoValidator{validate: New()}
}

func (ev *EchoValidator) Validate(i any) error {
	return ev.validate.Struct(i)
}
