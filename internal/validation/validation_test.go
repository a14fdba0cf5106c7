package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingForm struct {
	UserID string `json:"user_id" validate:"required"`
	Date   string `json:"appointment_date" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Secret string `json:"secret,omitempty" validate:"omitempty,min=6"`
}

func TestFirstReportsFirstFieldInDeclarationOrder(t *testing.T) {
	err := First(bookingForm{})
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "user_id", fe.Field)
	assert.Equal(t, "user_id is required", fe.Error())
}

func TestFirstUsesJSONNames(t *testing.T) {
	err := First(bookingForm{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, "appointment_date is required", err.Error())
}

func TestFirstMessages(t *testing.T) {
	err := First(bookingForm{UserID: "u1", Date: "2025-03-01", Email: "nope"})
	assert.EqualError(t, err, "email must be a valid email address")

	err = First(bookingForm{UserID: "u1", Date: "2025-03-01", Secret: "abc"})
	assert.EqualError(t, err, "secret must be at least 6 characters")
}

func TestFirstValid(t *testing.T) {
	assert.NoError(t, First(bookingForm{UserID: "u1", Date: "2025-03-01"}))
}
