// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package validation_test

import (
	"errors"
	"testing"

	"codeberg.org/cyberguard-ng/cyberguard/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"08031234567", true},
		{"07031234567", true},
		{"09031234567", true},
		{" 08131234567 ", true},
		{"06031234567", false},
		{"0803123456", false},
		{"080312345678", false},
		{"+2348031234567", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.PhoneNumber(tt.in))
		})
	}
}

type signup struct {
	Email string `validate:"required,email"`
	Phone string `validate:"required,ngphone"`
}

func TestNew_RegistersPhoneTag(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Struct(signup{Email: "ada@example.com", Phone: "08031234567"}))

	err := v.Struct(signup{Email: "ada@example.com", Phone: "12345"})
	require.Error(t, err)
	field, tag := validation.FirstTag(err)
	assert.Equal(t, "Phone", field)
	assert.Equal(t, "ngphone", tag)
}

func TestEmail(t *testing.T) {
	v := validation.New()

	assert.True(t, validation.Email(v, "ada@example.com"))
	assert.False(t, validation.Email(v, "ada"))
	assert.False(t, validation.Email(v, ""))
}

func TestFirstTag_OtherError(t *testing.T) {
	field, tag := validation.FirstTag(errors.New("boom"))
	assert.Empty(t, field)
	assert.Empty(t, tag)
}

func TestEchoValidator(t *testing.T) {
	type request struct {
		UserID string `validate:"required"`
		Phone  string `validate:"omitempty,ngphone"`
	}

	ev := validation.NewEchoValidator()

	assert.NoError(t, ev.Validate(&request{UserID: "u1", Phone: "08031234567"}))

	field, tag := validation.FirstTag(ev.Validate(&request{}))
	assert.Equal(t, "UserID", field)
	assert.Equal(t, "required", tag)

	field, tag = validation.FirstTag(ev.Validate(&request{UserID: "u1", Phone: "12345"}))
	assert.Equal(t, "Phone", field)
	assert.Equal(t, "ngphone", tag)
}

func TestEchoValidator_JSONFieldNames(t *testing.T) {
	type request struct {
		SMS string `json:"sms" validate:"max=5"`
	}

	field, tag := validation.FirstTag(validation.NewEchoValidator().Validate(&request{SMS: "too long"}))
	assert.Equal(t, "sms", field)
	assert.Equal(t, "max", tag)
}
