// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MinPasswordLength      = 8
	MaxPasswordLength      = 72 // bcrypt input limit
)

var (
	emailRegex        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidateStringNotEmpty checks the string is not blank after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength bounds the UTF-8 character count.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateEmail checks plausible email shape. Deliverability is not checked.
func ValidateEmail(s string) error {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, "email"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(trimmed, DefaultMaxStringLength, "email"); err != nil {
		return err
	}
	if !emailRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: email is not in a valid format", ErrValidationFailed)
	}
	return nil
}

// ValidatePassword enforces length bounds only; composition rules are a UX
// decision left to the frontend.
func ValidatePassword(s string) error {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidationFailed, MinPasswordLength)
	}
	if len(s) > MaxPasswordLength {
		return fmt.Errorf("%w: password exceeds maximum length of %d bytes", ErrValidationFailed, MaxPasswordLength)
	}
	return nil
}

// ValidateCurrencyCode accepts a 3-letter uppercase ISO code or empty.
func ValidateCurrencyCode(s string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return nil
	}
	if !currencyCodeRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: currency code ('%s') is not in the expected format (3 uppercase letters)", ErrValidationFailed, s)
	}
	return nil
}
