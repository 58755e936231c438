// Package phone contains presentation-layer phone number transforms.
// Validity is decided elsewhere (see internal/validate); these functions
// are best-effort and never fail.
package phone

import "strings"

// clean strips everything except digits, keeping a single leading +.
func clean(input string) string {
	var b strings.Builder
	for i, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// nanpMask renders up to ten national digits as (AAA) EEE-NNNN,
// progressively for partial input.
func nanpMask(digits string) string {
	switch {
	case len(digits) == 0:
		return ""
	case len(digits) <= 3:
		return "(" + digits
	case len(digits) <= 6:
		return "(" + digits[:3] + ") " + digits[3:]
	default:
		if len(digits) > 10 {
			digits = digits[:10]
		}
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	}
}

// FormatAsTyped masks a phone number progressively as the user types.
// North American input (a +1 prefix, or a bare leading 1 of at most 11
// digits, or bare national digits) is rendered as (AAA) EEE-NNNN;
// other +-prefixed input passes through beyond stripping. Digits are
// never dropped or invented, only punctuation is added.
func FormatAsTyped(input string) string {
	c := clean(input)
	switch {
	case c == "":
		return ""
	case strings.HasPrefix(c, "+1"):
		rest := c[2:]
		if rest == "" {
			return "+1"
		}
		return "+1 " + nanpMask(rest)
	case strings.HasPrefix(c, "+"):
		return c
	case strings.HasPrefix(c, "1") && len(c) <= 11:
		if c == "1" {
			return "1"
		}
		return "1 " + nanpMask(c[1:])
	default:
		return nanpMask(c)
	}
}

// FormatForDisplay converts a canonical number into the locale format:
// an 11-digit value starting with 1 (with or without +) or a bare
// 10-digit value becomes (AAA) EEE-NNNN. Anything else is returned
// unchanged.
func FormatForDisplay(number string) string {
	digits := strings.TrimPrefix(clean(number), "+")
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return nanpMask(digits[1:])
	case len(digits) == 10 && !strings.HasPrefix(number, "+"):
		return nanpMask(digits)
	default:
		return number
	}
}

// ParseToE164 normalizes input to E.164 on a best-effort basis.
// Already-prefixed input is returned stripped of separators; a bare
// 10-digit value is assumed domestic and gains +1; an 11-digit value
// starting with 1 gains +. Anything else comes back untouched, possibly
// incomplete.
func ParseToE164(input string) string {
	c := clean(input)
	switch {
	case strings.HasPrefix(c, "+"):
		return c
	case len(c) == 10:
		return "+1" + c
	case len(c) == 11 && strings.HasPrefix(c, "1"):
		return "+" + c
	default:
		return input
	}
}

// IsComplete reports whether the normalized form is a full domestic
// number: exactly +1 followed by ten digits. International numbers are
// not considered complete by this check.
func IsComplete(input string) bool {
	e164 := ParseToE164(input)
	if len(e164) != 12 || !strings.HasPrefix(e164, "+1") {
		return false
	}
	for _, r := range e164[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Mask hides the middle of a phone number for logging, e.g. +1******67.
func Mask(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return number[:2] + strings.Repeat("*", len(number)-4) + number[len(number)-2:]
}
