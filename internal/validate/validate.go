// Package validate holds the sign-up form checks shared by the API and the web client.
package validate

import (
	"regexp"
	"unicode/utf8"
)

const minPasswordLength = 8

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	nonDigit     = regexp.MustCompile(`[^0-9]`)
	upper        = regexp.MustCompile(`[A-Z]`)
	lower        = regexp.MustCompile(`[a-z]`)
	digit        = regexp.MustCompile(`[0-9]`)
)

// PasswordResult reports whether a password is acceptable and how many of the
// four rules (length, upper, lower, digit) it meets.
type PasswordResult struct {
	IsValid  bool `json:"is_valid"`
	Strength int  `json:"strength"`
}

func Password(password string) PasswordResult {
	checks := []bool{
		utf8.RuneCountInString(password) >= minPasswordLength,
		upper.MatchString(password),
		lower.MatchString(password),
		digit.MatchString(password),
	}

	var res PasswordResult
	for _, ok := range checks {
		if ok {
			res.Strength++
		}
	}
	res.IsValid = res.Strength == len(checks)
	return res
}

func Email(email string) bool {
	return emailPattern.MatchString(email)
}

// Phone accepts any formatting as long as exactly ten digits remain.
func Phone(phone string) bool {
	return phonePattern.MatchString(nonDigit.ReplaceAllString(phone, ""))
}
