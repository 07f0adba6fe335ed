package dto

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// PasswordsRequest represents the body of POST /password.
type PasswordsRequest struct {
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// PriorityUser is the nested user of POST /users/priority.
type PriorityUser struct {
	Name string `json:"name" validate:"required"`
	Age  *int   `json:"age" validate:"required"`
}

// PriorityRequest represents the body of POST /users/priority.
type PriorityRequest struct {
	User     *PriorityUser `json:"user" validate:"required"`
	Priority *int          `json:"priority" validate:"required,gte=1,lte=3"`
}

// UserForm is the form of POST /users/form.
type UserForm struct {
	Name string `form:"name" validate:"required"`
	Age  int    `form:"age"`
}

// FileInfo describes an uploaded file.
type FileInfo struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// RegistrationRequest represents the body of POST /registrations.
type RegistrationRequest struct {
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// ValidationMessage implements validation.MessageOverrider.
func (RegistrationRequest) ValidationMessage(field, tag string) (string, bool) {
	if field == "password_confirmation" && tag == "eqfield" {
		return "Passwords don't match", true
	}
	return "", false
}

// IntList decodes either a JSON array of integers or a comma separated string.
type IntList []int

// intListError is filled in with the field path by encoding/json.
func intListError(value string) error {
	return &json.UnmarshalTypeError{Value: value, Type: reflect.TypeOf([]int(nil))}
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *IntList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out := IntList{}
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return intListError("string")
			}
			out = append(out, n)
		}
		*l = out
		return nil
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return intListError("array")
	}
	if ints == nil {
		ints = []int{}
	}
	*l = ints
	return nil
}

// ValuesRequest represents the body of POST /values.
type ValuesRequest struct {
	Values *IntList `json:"values" validate:"required"`
}
