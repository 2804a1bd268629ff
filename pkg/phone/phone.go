// Package phone canonicalizes phone numbers to the stored format
// "+<country code> <10 digits>", e.g. "+91 9876543210". Every write and
// every equality lookup must go through Normalize first.
package phone

import (
	"errors"
	"strings"
)

const DefaultCountryCode = "91"

var ErrInvalidPhone = errors.New("phone number must contain exactly 10 significant digits")

// Normalize strips everything but digits, keeps the last 10 as the
// subscriber number and prefixes the country code. Inputs shorter than 10
// digits are rejected rather than padded.
func Normalize(raw string) (string, error) {
	digits := digitsOf(raw)
	if len(digits) < 10 {
		return "", ErrInvalidPhone
	}

	subscriber := digits[len(digits)-10:]
	cc := DefaultCountryCode
	if extra := digits[:len(digits)-10]; extra != "" {
		// Anything before the subscriber number is taken as the country
		// code; more than 3 digits means the input was not a phone number.
		if len(extra) > 3 {
			return "", ErrInvalidPhone
		}
		cc = extra
	}

	return "+" + cc + " " + subscriber, nil
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
