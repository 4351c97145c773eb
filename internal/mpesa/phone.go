package mpesa

import (
	"regexp"
	"strings"
)

var (
	nonDigitRegex = regexp.MustCompile(`\D`)
	msisdnRegex   = regexp.MustCompile(`^254[0-9]{9}$`)
)

// NormalizePhone converts a Kenyan phone number to the 254XXXXXXXXX form
// Daraja requires. A leading 0 is replaced with the country code, bare
// 9-digit subscriber numbers starting with a mobile prefix get the country
// code prepended, and already-prefixed numbers pass through.
func NormalizePhone(phone string) (string, error) {
	cleaned := nonDigitRegex.ReplaceAllString(phone, "")

	switch {
	case strings.HasPrefix(cleaned, "0"):
		cleaned = "254" + cleaned[1:]
	case strings.HasPrefix(cleaned, "7") || strings.HasPrefix(cleaned, "1"):
		cleaned = "254" + cleaned
	case !strings.HasPrefix(cleaned, "254"):
		cleaned = "254" + cleaned
	}

	if !msisdnRegex.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}

	return cleaned, nil
}
