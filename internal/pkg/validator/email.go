package validator

import (
	"errors"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail checks the basic shape of an address. Deliverability is the
// invitation sender's problem, not ours.
func ValidEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// NormalizeEmail lowercases the address for the org-scoped uniqueness check.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
