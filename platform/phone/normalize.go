// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when callers pass an empty region.
const DefaultRegion = "SA"

// minNationalDigits guards against stripping a calling code off a short
// local number that merely starts with the same digits.
const minNationalDigits = 8

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(withPlus(trimmed), regionOrDefault(region))
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Digits strips every non-digit character.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CallingCode returns the country calling code for region as a digit string, e.g. "966".
func CallingCode(region string) string {
	code := phonenumbers.GetCountryCodeForRegion(regionOrDefault(region))
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}

// NationalNumber reduces any representation of a number to its national
// significant digits: separators, the international "00" prefix, the region's
// calling code and trunk zeros are removed. The result is identical for
// "0501234567", "+966 50 123 4567" and "00966501234567".
func NationalNumber(input, region string) string {
	digits := Digits(input)
	digits = strings.TrimPrefix(digits, "00")

	if cc := CallingCode(region); cc != "" && strings.HasPrefix(digits, cc) && len(digits)-len(cc) >= minNationalDigits {
		digits = strings.TrimPrefix(digits, cc)
	}

	return strings.TrimLeft(digits, "0")
}

func regionOrDefault(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return DefaultRegion
	}
	return region
}

// Senders on the messaging channel arrive as bare international digits
// ("966501234567"); phonenumbers needs the leading plus to read them as such.
func withPlus(value string) string {
	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "0") {
		return value
	}
	return "+" + value
}
