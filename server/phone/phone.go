package phone

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// E.164 national significant number: first digit 1-9, 8-15 digits total.
var e164DigitsRegexp = regexp.MustCompile(`^[1-9]\d{7,14}$`)

var scientificRegexp = regexp.MustCompile(`[eE]`)

// Normalize canonicalizes arbitrary phone input into bare E.164 digits
// (country code included, no '+'). The boolean reports whether the input
// was recoverable; an empty string is returned otherwise.
//
// Spreadsheet exports often mangle phone columns into scientific notation
// (e.g. '2.33544E+11'), so anything containing an exponent marker is first
// parsed as a float and rounded back to an integer.
func Normalize(raw string) (string, bool) {
	digits := stripToDigits(convertScientificNotation(raw))
	if digits == "" {
		return "", false
	}

	// '00' is the international dialing prefix, drop it
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}

	// A bare local-format leading zero carries no country code
	if strings.HasPrefix(digits, "0") {
		return "", false
	}

	if !e164DigitsRegexp.MatchString(digits) {
		return "", false
	}

	return digits, true
}

// IsValid reports whether raw normalizes to E.164 digits.
func IsValid(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}

// Display returns '+<digits>' for presentation, or "" for invalid input.
// The '+' is display-only; stored values are always bare digits.
func Display(raw string) string {
	digits, ok := Normalize(raw)
	if !ok {
		return ""
	}

	return "+" + digits
}

func stripToDigits(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func convertScientificNotation(raw string) string {
	str := strings.TrimSpace(raw)
	if !scientificRegexp.MatchString(str) {
		return str
	}

	num, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return str
	}

	return strconv.FormatFloat(math.Round(num), 'f', -1, 64)
}
