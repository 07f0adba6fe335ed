package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city" validate:"required"`
}

type person struct {
	FirstName string   `json:"first_name" validate:"required,min=3"`
	Age       *int     `json:"age" validate:"omitempty,gte=0,lte=120"`
	Gender    string   `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	Address   *address `json:"address" validate:"omitempty"`
}

type registration struct {
	Password     string `json:"password" validate:"required"`
	Confirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (registration) ValidationMessage(field, tag string) (string, bool) {
	if tag == "eqfield" {
		return "Passwords don't match", true
	}
	return "", false
}

func TestStruct_Valid(t *testing.T) {
	t.Parallel()

	age := 30
	err := New().Struct(person{FirstName: "John", Age: &age, Gender: "MALE"}, LocBody)
	assert.NoError(t, err)
}

func TestStruct_FieldErrors(t *testing.T) {
	t.Parallel()

	age := 2000
	err := New().Struct(person{FirstName: "J", Age: &age, Gender: "OTHER", Address: &address{}}, LocBody)
	require.Error(t, err)

	var errs Errors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 4)

	byField := map[string]FieldError{}
	for _, fe := range errs {
		byField[fe.Loc[len(fe.Loc)-1]] = fe
	}

	assert.Equal(t, []string{"body", "first_name"}, byField["first_name"].Loc)
	assert.Equal(t, "ensure this value has at least 3 characters", byField["first_name"].Msg)
	assert.Equal(t, "ensure this value is less than or equal to 120", byField["age"].Msg)
	assert.Equal(t, "type_error.enum", byField["gender"].Type)
	assert.Equal(t, []string{"body", "address", "city"}, byField["city"].Loc)
	assert.Equal(t, "field required", byField["city"].Msg)
}

func TestStruct_MessageOverride(t *testing.T) {
	t.Parallel()

	err := New().Struct(registration{Password: "aa", Confirmation: "bb"}, LocBody)
	var errs Errors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "Passwords don't match", errs[0].Msg)
	assert.Equal(t, []string{"body", "password_confirmation"}, errs[0].Loc)
}

func TestVar_LicensePlate(t *testing.T) {
	t.Parallel()

	v := New()
	tests := []struct {
		plate string
		ok    bool
	}{
		{"AB-123-CD", true},
		{"123456789", true},
		{"AB-12-CD", false},
		{"AB123CD", false},
	}

	for _, tt := range tests {
		err := v.Var(tt.plate, "licenseplate", LocPath, "license")
		if tt.ok {
			assert.NoError(t, err, tt.plate)
		} else {
			assert.Error(t, err, tt.plate)
		}
	}
}

func TestErrors_Error(t *testing.T) {
	t.Parallel()

	err := Missing(LocQuery, "format")
	assert.Equal(t, "query.format: field required", err.Error())
	assert.Equal(t, "type_error.integer", NotInteger(LocPath, "id")[0].Type)
}
