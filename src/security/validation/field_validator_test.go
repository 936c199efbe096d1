// backend/src/security/validation/field_validator_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("two@@example.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("long enough"))
	assert.Error(t, ValidatePassword("short"))
	assert.ErrorIs(t, ValidatePassword("short"), ErrValidationFailed)
}

func TestValidateCurrencyCode(t *testing.T) {
	assert.NoError(t, ValidateCurrencyCode("EUR"))
	assert.NoError(t, ValidateCurrencyCode(" usd "))
	assert.NoError(t, ValidateCurrencyCode(""))
	assert.Error(t, ValidateCurrencyCode("EURO"))
	assert.Error(t, ValidateCurrencyCode("E1"))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Main Street Grocer", SanitizeText("Main Street Grocer"))
	assert.Empty(t, SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "Cafe", SanitizeText("<b>Cafe</b>"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "ab\tc", StripUnprintable("a\x00b\tc\x07"))
}
