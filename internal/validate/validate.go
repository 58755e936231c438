// Package validate holds the pure field validators used by both the API
// handlers and the profile service. Every function returns a Result and
// never panics; optional fields report valid on empty input.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Result describes the outcome of validating a single field.
type Result struct {
	Valid   bool
	Message string
}

func ok() Result             { return Result{Valid: true} }
func fail(msg string) Result { return Result{Valid: false, Message: msg} }

var (
	phoneRe = regexp.MustCompile(`^\+\d{10,15}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRe  = regexp.MustCompile(`^[\p{L} '-]+$`)
)

// Activities is the closed set of activity tags a profile may carry.
var Activities = []string{
	"running", "cycling", "swimming", "gym", "yoga",
	"hiking", "climbing", "tennis", "basketball", "soccer",
}

var activitySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Activities))
	for _, a := range Activities {
		m[a] = struct{}{}
	}
	return m
}()

// PhoneNumber accepts any canonical E.164 string: a leading +, then 10
// to 15 digits. Locale-specific rules are intentionally out of scope.
func PhoneNumber(phone string) Result {
	if phone == "" {
		return fail("phone number is required")
	}
	if !strings.HasPrefix(phone, "+") {
		return fail("phone number must start with +")
	}
	if !phoneRe.MatchString(phone) {
		return fail("phone number must be 10-15 digits after the +")
	}
	return ok()
}

// Email is optional: empty input is valid. Non-empty input must look
// like local@domain.tld and fit in 254 characters.
func Email(email string) Result {
	if email == "" {
		return ok()
	}
	if len(email) > 254 {
		return fail("email must be at most 254 characters")
	}
	if !emailRe.MatchString(email) {
		return fail("email must be a valid address")
	}
	return ok()
}

// Password requires 8-128 characters with at least one letter and one
// digit. No symbol requirement beyond that.
func Password(password string) Result {
	if password == "" {
		return fail("password is required")
	}
	if len(password) < 8 {
		return fail("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return fail("password must be at most 128 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fail("password must contain at least one letter and one number")
	}
	return ok()
}

// Name requires a trimmed length of 2-50 characters: letters, spaces,
// hyphens and apostrophes only.
func Name(name string) Result {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fail("name is required")
	}
	if len([]rune(trimmed)) < 2 {
		return fail("name must be at least 2 characters")
	}
	if len([]rune(trimmed)) > 50 {
		return fail("name must be at most 50 characters")
	}
	if !nameRe.MatchString(trimmed) {
		return fail("name may only contain letters, spaces, hyphens and apostrophes")
	}
	return ok()
}

// PaceRange checks optional min/max pace values in minutes per
// kilometer. Each bound must be within [4,20]; when both are present
// min must be strictly below max.
func PaceRange(min, max *float64) Result {
	for _, p := range []*float64{min, max} {
		if p == nil {
			continue
		}
		if *p < 4 || *p > 20 {
			return fail("pace must be between 4 and 20 min/km")
		}
	}
	if min != nil && max != nil && *min >= *max {
		return fail("minimum pace must be below maximum pace")
	}
	return ok()
}

// ActivityPreferences checks every tag against the closed activity set.
// An empty list is valid.
func ActivityPreferences(prefs []string) Result {
	if prefs == nil {
		return fail("activity preferences must be a list")
	}
	for _, p := range prefs {
		if _, known := activitySet[p]; !known {
			return fail(fmt.Sprintf("unknown activity %q", p))
		}
	}
	return ok()
}
