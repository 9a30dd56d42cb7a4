package checkout

import "strings"

// FormatCardNumber groups up to 16 digits in blocks of four ("4242 4242 ...").
// Input with fewer than four digits is returned unchanged.
func FormatCardNumber(value string) string {
	digits := onlyDigits(value)
	if len(digits) < 4 {
		return value
	}
	if len(digits) > 16 {
		digits = digits[:16]
	}
	parts := make([]string, 0, 4)
	for i := 0; i < len(digits); i += 4 {
		end := min(i+4, len(digits))
		parts = append(parts, digits[i:end])
	}
	return strings.Join(parts, " ")
}

// FormatExpiry turns "1225" into "12/25". Input with two digits or fewer is
// returned unchanged.
func FormatExpiry(value string) string {
	digits := onlyDigits(value)
	if len(digits) <= 2 {
		return value
	}
	return digits[:2] + "/" + digits[2:min(4, len(digits))]
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
