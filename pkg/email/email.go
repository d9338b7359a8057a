package email

import (
	"strings"
	"unicode"
)

// DeriveDisplayName builds a best-effort display name from the local part of
// an email address. Used when OCR gave us no owner name but resolution found
// an address, so notifications can still open with something human.
func DeriveDisplayName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "Card Owner"
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}

	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
