package payment

import (
	"fmt"
	"strings"
)

// subscriberDigits is the length of a national number without the trunk prefix.
const subscriberDigits = 9

// NormalizePhone converts a phone number into the international digits-only form the
// gateway expects, e.g. "0911223344" and "+251911223344" both become "251911223344".
// Spaces, dashes and parentheses are ignored. Anything else is ErrInvalidPhone.
func NormalizePhone(raw, countryCode string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	s = strings.TrimPrefix(s, "+")
	if !isDigits(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}

	switch {
	case len(s) == subscriberDigits+1 && s[0] == '0':
		return countryCode + s[1:], nil
	case len(s) == len(countryCode)+subscriberDigits && strings.HasPrefix(s, countryCode):
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
