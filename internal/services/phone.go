package services

import (
	"strings"

	"github.com/refprog/backend/internal/apperr"
)

// NormalizePhone canonicalizes phone numbers to "+7XXXXXXXXXX".
// Rules: keep digits only; 11 digits starting with 7 or 8 -> "+7" + last 10;
// exactly 10 digits -> "+7" + digits; anything else is rejected.
func NormalizePhone(p string) (string, error) {
	digits := digitsOnly(p)
	switch {
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '8'):
		return "+7" + digits[1:], nil
	case len(digits) == 10:
		return "+7" + digits, nil
	default:
		return "", apperr.InvalidPhoneFormat(p)
	}
}

// digitsOnly keeps ASCII digits only. Unicode digit classes are excluded:
// the length checks above count bytes, and the canonical form must never
// carry a non-ASCII rune into the unique phone column.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
