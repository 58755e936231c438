package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestDetectType_order(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		context string
		want    Type
	}{
		{"network keyword", errors.New("network request failed"), "", TypeNetwork},
		{"fetch keyword", errors.New("failed to fetch"), "", TypeNetwork},
		{"timeout keyword", errors.New("timeout waiting for response"), "", TypeNetwork},
		{"5xx status", &StatusError{Status: 503}, "", TypeNetwork},
		{"401 status", &StatusError{Status: 401}, "", TypeAuthentication},
		{"403 status", &StatusError{Status: 403}, "", TypeAuthentication},
		{"session keyword", errors.New("session expired"), "", TypeAuthentication},
		{"unauthorized keyword", errors.New("unauthorized"), "", TypeAuthentication},
		{"permission keyword", errors.New("permission denied by user"), "", TypePermission},
		{"blocked keyword", errors.New("popup blocked"), "", TypePermission},
		{"phone context", errors.New("value rejected"), "phone registration", TypePhone},
		{"phone message", errors.New("phone number already registered"), "", TypePhone},
		{"400 status", &StatusError{Status: 400}, "", TypeValidation},
		{"invalid keyword", errors.New("invalid email"), "", TypeValidation},
		{"required keyword", errors.New("name is required"), "", TypeValidation},
		{"404 status", &StatusError{Status: 404}, "", TypeData},
		{"not found keyword", errors.New("workout not found"), "", TypeData},
		{"anything else", errors.New("kaboom"), "", TypeUnknown},
		// Ordering: a network indicator wins over a later validation one.
		{"network beats invalid", errors.New("network error: invalid frame"), "", TypeNetwork},
	}
	for _, tc := range cases {
		if got := detectType(tc.err, tc.context); got != tc.want {
			t.Errorf("%s: detectType = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNew_retryability(t *testing.T) {
	info := New(&StatusError{Status: 401}, "", "")
	if info.Type != TypeAuthentication || info.Retryable {
		t.Errorf("401 should be non-retryable authentication, got %+v", info)
	}

	info = New(errors.New("network down"), "", "")
	if info.Type != TypeNetwork || !info.Retryable {
		t.Errorf("network error should be retryable, got %+v", info)
	}

	if New(nil, "", "") != nil {
		t.Error("nil error classifies to nil")
	}
}

func TestNew_messages(t *testing.T) {
	info := New(errors.New("phone number already registered"), "phone", "")
	if info.Type != TypePhone {
		t.Fatalf("type = %q", info.Type)
	}
	if info.Actionable == presets[TypePhone].actionable {
		t.Error("already-registered phone errors should get a refined hint")
	}

	info = New(errors.New("boom"), "", "Could not save your workout.")
	if info.UserMessage != "Could not save your workout." {
		t.Errorf("custom message not applied: %q", info.UserMessage)
	}

	raw := fmt.Errorf("wrapping: %w", errors.New("inner"))
	info = New(raw, "ctx", "")
	if !errors.Is(info, raw) {
		t.Error("Info should unwrap to the original error")
	}
	if info.Context != "ctx" {
		t.Errorf("context not preserved: %q", info.Context)
	}
}
