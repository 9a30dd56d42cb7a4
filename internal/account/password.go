package account

import "unicode/utf16"

// MinPasswordStrength is the lowest strength accepted at registration.
const MinPasswordStrength = 3

// Strength is a 0-5 password score with its label.
type Strength struct {
	Score    int    `json:"score"`
	Label    string `json:"label"`
	Accepted bool   `json:"accepted"`
	Checks   Checks `json:"checks"`
}

// Checks lists which strength criteria are met.
type Checks struct {
	MinLength bool `json:"minLength"`
	Lowercase bool `json:"lowercase"`
	Uppercase bool `json:"uppercase"`
	Digit     bool `json:"digit"`
	Special   bool `json:"special"`
}

// PasswordStrength scores one point each for: at least 8 UTF-16 code units, a
// lowercase letter, an uppercase letter, a digit and a character outside
// [A-Za-z0-9].
func PasswordStrength(password string) Strength {
	var c Checks
	n := 0
	for _, r := range password {
		n += utf16.RuneLen(r)
		switch {
		case r >= 'a' && r <= 'z':
			c.Lowercase = true
		case r >= 'A' && r <= 'Z':
			c.Uppercase = true
		case r >= '0' && r <= '9':
			c.Digit = true
		default:
			c.Special = true
		}
	}
	c.MinLength = n >= 8
	score := 0
	for _, ok := range []bool{c.MinLength, c.Lowercase, c.Uppercase, c.Digit, c.Special} {
		if ok {
			score++
		}
	}
	return Strength{Score: score, Label: strengthLabel(score), Accepted: score >= MinPasswordStrength, Checks: c}
}

func strengthLabel(score int) string {
	switch {
	case score == 0:
		return ""
	case score <= 2:
		return "Weak"
	case score <= 4:
		return "Medium"
	default:
		return "Strong"
	}
}
