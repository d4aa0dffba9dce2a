package errors

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formatterQuery struct {
	Count *int   `form:"count" validate:"omitempty,min=0,max=200"`
	Name  string `json:"name,omitempty" validate:"required"`
	Slug  string `validate:"lowercase"`
}

func TestFormatValidationErrors_NamesFieldsByTheirRequestKey(t *testing.T) {
	tooMany := 201
	err := validator.New().Struct(&formatterQuery{Count: &tooMany, Slug: "ABC"})
	require.Error(t, err)

	assert.Equal(t, []FieldError{
		{Field: "count", Message: "Must not exceed 200"},
		{Field: "name", Message: "This field is required"},
		{Field: "Slug", Message: "Invalid value"},
	}, FormatValidationErrors(err, &formatterQuery{}))
}

func TestFormatValidationErrors_Min(t *testing.T) {
	negative := -1
	err := validator.New().Struct(formatterQuery{Count: &negative, Name: "x"})

	assert.Equal(t, []FieldError{{Field: "count", Message: "Must be at least 0"}}, FormatValidationErrors(err, formatterQuery{}))
}

func TestFormatValidationErrors_IgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(nil, &formatterQuery{}))
	assert.Nil(t, FormatValidationErrors(errors.New("strconv.ParseInt: invalid syntax"), &formatterQuery{}))
}
