package account

import (
	"fmt"
	"strings"

	"account-service/internal/user"
)

// Result is the uniform mutation envelope. Domain failures land here
// with Success=false; they are never transport-level faults.
type Result struct {
	Success bool       `json:"success"`
	User    *user.User `json:"user,omitempty"`
	Message string     `json:"message,omitempty"`
	Errors  []string   `json:"errors,omitempty"`
}

func succeeded(u *user.User) Result {
	return Result{Success: true, User: u}
}

func failed(errs ...string) Result {
	return Result{Success: false, Errors: errs}
}

// fieldError renders a field-scoped validation error, e.g.
// "Password Confirmation: the two password fields did not match."
func fieldError(field, message string) string {
	return fmt.Sprintf("%s: %s", fieldTitle(field), message)
}

func fieldTitle(field string) string {
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}
