// Package password implements the password-policy validator. Validation is
// pure: it reports every violated rule so callers can surface all problems
// in one response.
package password

import "strings"

// Violation identifies a single failed policy rule.
type Violation string

const (
	TooShort    Violation = "too_short"
	NoUppercase Violation = "no_uppercase"
	NoLowercase Violation = "no_lowercase"
	NoDigit     Violation = "no_digit"
	NoSpecial   Violation = "no_special"
	Common      Violation = "common_password"
)

const minLength = 8

const specialChars = `!@#$%^&*(),.?":{}|<>`

var commonPasswords = []string{
	"123", "abc", "password", "12345678", "qwerty", "letmein", "admin",
	"welcome", "password123", "123456", "admin123", "111111", "abc123",
	"monkey", "dragon",
}

// Validate checks a secret against every policy rule and returns all
// violations. An empty slice means the secret is acceptable.
func Validate(secret string) []Violation {
	var violations []Violation

	if len(secret) < minLength {
		violations = append(violations, TooShort)
	}
	if !strings.ContainsFunc(secret, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		violations = append(violations, NoUppercase)
	}
	if !strings.ContainsFunc(secret, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		violations = append(violations, NoLowercase)
	}
	if !strings.ContainsFunc(secret, func(r rune) bool { return r >= '0' && r <= '9' }) {
		violations = append(violations, NoDigit)
	}
	if !strings.ContainsAny(secret, specialChars) {
		violations = append(violations, NoSpecial)
	}
	if isCommon(secret) {
		violations = append(violations, Common)
	}

	return violations
}

func isCommon(secret string) bool {
	lowered := strings.ToLower(secret)
	for _, candidate := range commonPasswords {
		if lowered == candidate {
			return true
		}
	}
	return false
}
