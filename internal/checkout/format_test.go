package checkout

import "testing"

func TestFormatCardNumber(t *testing.T) {
	cases := map[string]string{
		"4242424242424242":      "4242 4242 4242 4242",
		"4242-4242 42":          "4242 4242 42",
		"42":                    "42",
		"42424242424242429999x": "4242 4242 4242 4242",
	}
	for in, want := range cases {
		if got := FormatCardNumber(in); got != want {
			t.Fatalf("FormatCardNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatExpiry(t *testing.T) {
	cases := map[string]string{
		"1225":  "12/25",
		"12/25": "12/25",
		"123":   "12/3",
		"1":     "1",
		"12":    "12",
	}
	for in, want := range cases {
		if got := FormatExpiry(in); got != want {
			t.Fatalf("FormatExpiry(%q) = %q, want %q", in, got, want)
		}
	}
}
