package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldTitle(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"username":                  "Username",
		"email":                     "Email",
		"old_password":              "Old Password",
		"new_password_confirmation": "New Password Confirmation",
	}

	for field, want := range cases {
		assert.Equal(t, want, fieldTitle(field))
	}
}

func TestFieldErrorFormat(t *testing.T) {
	t.Parallel()

	got := fieldError("password_confirmation", "the two password fields did not match.")
	assert.Equal(t, "Password Confirmation: the two password fields did not match.", got)
}
