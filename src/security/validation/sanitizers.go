// backend/src/security/validation/sanitizers.go
package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// Strict policy: strips every HTML tag and attribute. Applied to all
// provider-supplied free text (merchant names, institution names, account
// names) before it reaches the database.
var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText removes all HTML from an input string.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// StripUnprintable drops non-printable characters, keeping common whitespace.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
