package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/pkg/errors"
)

type slot struct {
	Time string `json:"time" validate:"notblank" msg:"Every time slot needs a time."`
}

type sample struct {
	Name   string `json:"name" validate:"notblank" msg:"Name is required."`
	Number string `json:"number" validate:"phone10"`
	Age    int    `json:"age" validate:"gt=0,lt=150" msg:"Age must be greater than 0 and less than 150."`
	Slots  []slot `json:"slots" validate:"dive"`
}

func TestValidateFirstFailureWins(t *testing.T) {
	v := New()

	err := v.Validate(sample{Name: "", Number: "12", Age: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, "Name is required.", err.Error())

	err = v.Validate(sample{Name: "Asha", Number: "12345", Age: 0})
	require.Error(t, err)
	assert.Equal(t, "Phone number must be exactly 10 digits.", err.Error())

	err = v.Validate(sample{Name: "Asha", Number: "9876543210", Age: 150})
	require.Error(t, err)
	assert.Equal(t, "Age must be greater than 0 and less than 150.", err.Error())
}

func TestValidateNestedMessage(t *testing.T) {
	v := New()

	err := v.Validate(sample{Name: "Asha", Number: "9876543210", Age: 30, Slots: []slot{{Time: "10:00"}, {Time: " "}}})
	require.Error(t, err)
	assert.Equal(t, "Every time slot needs a time.", err.Error())
}

func TestPhoneRule(t *testing.T) {
	for _, in := range []string{"", "123456789", "12345678901", "12345abcde", "+123456789", "12345 67890"} {
		assert.False(t, ValidPhone(in), in)
	}
	assert.True(t, ValidPhone("7012345677"))
}

func TestValidateAcceptsGoodInput(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&sample{Name: "Asha", Number: "9876543210", Age: 1}))
	assert.NoError(t, v.Validate(&sample{Name: "Asha", Number: "9876543210", Age: 149}))
}
