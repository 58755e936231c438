package phone

import (
	"strings"
	"testing"
)

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func TestFormatAsTyped_progressive(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"5":             "(5",
		"555":           "(555",
		"5551":          "(555) 1",
		"555123":        "(555) 123",
		"5551234":       "(555) 123-4",
		"5551234567":    "(555) 123-4567",
		"+1":            "+1",
		"+15551234567":  "+1 (555) 123-4567",
		"15551234567":   "1 (555) 123-4567",
		"(555) 123-45":  "(555) 123-45",
		"+442071234567": "+442071234567",
	}
	for input, want := range cases {
		if got := FormatAsTyped(input); got != want {
			t.Errorf("FormatAsTyped(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatAsTyped_preservesDigits(t *testing.T) {
	inputs := []string{"5", "55", "555", "55512", "5551234", "5551234567", "15551234567", "+15551234567", "(555) 123"}
	for _, input := range inputs {
		got := FormatAsTyped(input)
		if countDigits(got) != countDigits(input) {
			t.Errorf("FormatAsTyped(%q) = %q changed digit count %d -> %d",
				input, got, countDigits(input), countDigits(got))
		}
	}
}

func TestFormatForDisplay(t *testing.T) {
	cases := map[string]string{
		"+15551234567":  "(555) 123-4567",
		"15551234567":   "(555) 123-4567",
		"5551234567":    "(555) 123-4567",
		"+442071234567": "+442071234567",
		"garbage":       "garbage",
		"":              "",
	}
	for input, want := range cases {
		if got := FormatForDisplay(input); got != want {
			t.Errorf("FormatForDisplay(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseToE164(t *testing.T) {
	cases := map[string]string{
		"5551234567":     "+15551234567",
		"(555) 123-4567": "+15551234567",
		"15551234567":    "+15551234567",
		"+15551234567":   "+15551234567",
		"+44 20 7123":    "+44207123",
		"555":            "555", // incomplete passes through
	}
	for input, want := range cases {
		if got := ParseToE164(input); got != want {
			t.Errorf("ParseToE164(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseToE164_idempotent(t *testing.T) {
	inputs := []string{"5551234567", "(555) 123-4567", "+15551234567", "+4915123456789"}
	for _, input := range inputs {
		once := ParseToE164(input)
		twice := ParseToE164(once)
		if once != twice {
			t.Errorf("ParseToE164 not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestDisplayOfParsed(t *testing.T) {
	if got := FormatForDisplay(ParseToE164("5551234567")); got != "(555) 123-4567" {
		t.Errorf("round trip = %q, want (555) 123-4567", got)
	}
}

func TestIsComplete(t *testing.T) {
	complete := []string{"5551234567", "(555) 123-4567", "+15551234567", "15551234567"}
	for _, input := range complete {
		if !IsComplete(input) {
			t.Errorf("IsComplete(%q) should be true", input)
		}
	}
	incomplete := []string{"555123456", "+4420712345678", "", "555"}
	for _, input := range incomplete {
		if IsComplete(input) {
			t.Errorf("IsComplete(%q) should be false", input)
		}
	}
}

func TestMask(t *testing.T) {
	masked := Mask("+15551234567")
	if !strings.HasPrefix(masked, "+1") || !strings.HasSuffix(masked, "67") {
		t.Errorf("Mask should keep edges, got %q", masked)
	}
	if strings.Contains(masked, "5551234") {
		t.Errorf("Mask leaked middle digits: %q", masked)
	}
	if Mask("123") != "****" {
		t.Error("short numbers mask entirely")
	}
}
