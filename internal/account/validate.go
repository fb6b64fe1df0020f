package account

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	numericRegex  = regexp.MustCompile(`^[0-9]+$`)
)

const (
	minPasswordLength = 8
	maxPasswordLength = 200
)

func validateUsername(username string) []string {
	if !usernameRegex.MatchString(username) {
		return []string{fieldError("username", "must be 3-32 characters of lowercase letters, digits, '.', '_' or '-'.")}
	}
	return nil
}

func validateEmail(email string) []string {
	if len(email) > 255 || !emailRegex.MatchString(email) {
		return []string{fieldError("email", "enter a valid email address.")}
	}
	return nil
}

func validatePassword(field, password string) []string {
	var errs []string
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs = append(errs, fieldError(field, "this password is too short. It must contain at least 8 characters."))
	}
	// The maximum stays byte-based: it bounds the bcrypt input size.
	if len(password) > maxPasswordLength {
		errs = append(errs, fieldError(field, "this password is too long."))
	}
	if numericRegex.MatchString(password) {
		errs = append(errs, fieldError(field, "this password is entirely numeric."))
	}

	return errs
}

func confirmationMatches(field, password, confirmation string) []string {
	if password != confirmation {
		return []string{fieldError(field, "the two password fields did not match.")}
	}
	return nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
