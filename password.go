package authd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PasswordSpecialChars is the punctuation set the policy accepts.
const PasswordSpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

type passwordRule struct {
	message string
	met     func(string) bool
}

// Rules are checked independently; a candidate failing several rules
// reports every violation, in this order.
var passwordRules = []passwordRule{
	{
		// length is counted in characters, not bytes
		message: "Password must be at least 8 characters long",
		met:     func(pw string) bool { return utf8.RuneCountInString(pw) >= MinPasswordLength },
	},
	{
		message: "Password must contain at least 1 uppercase letter",
		met:     func(pw string) bool { return strings.ContainsFunc(pw, unicode.IsUpper) },
	},
	{
		message: "Password must contain at least 1 lowercase letter",
		met:     func(pw string) bool { return strings.ContainsFunc(pw, unicode.IsLower) },
	},
	{
		message: "Password must contain at least 1 number",
		met:     func(pw string) bool { return strings.ContainsFunc(pw, unicode.IsDigit) },
	},
	{
		message: "Password must contain at least 1 special character (" + PasswordSpecialChars + ")",
		met:     func(pw string) bool { return strings.ContainsAny(pw, PasswordSpecialChars) },
	},
}

// ValidatePassword runs every composition rule against the candidate
// and returns one message per failed rule, in rule order. A nil result
// means the password is accepted. Pure, no side effects.
func ValidatePassword(password string) []string {
	var violations []string
	for _, rule := range passwordRules {
		if !rule.met(password) {
			violations = append(violations, rule.message)
		}
	}
	return violations
}

// CheckPasswordPolicy wraps ValidatePassword into the error taxonomy.
func CheckPasswordPolicy(password string) error {
	if violations := ValidatePassword(password); len(violations) > 0 {
		return NewPasswordPolicyError(violations)
	}
	return nil
}
