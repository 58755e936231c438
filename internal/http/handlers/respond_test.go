package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
)

func TestValidatorE164Rule(t *testing.T) {
	v := NewValidator()

	type payload struct {
		Phone string `validate:"required,e164"`
	}

	if err := v.Struct(payload{Phone: "+15551234567"}); err != nil {
		t.Errorf("canonical number rejected: %v", err)
	}
	for _, bad := range []string{"", "5551234567", "(555) 123-4567", "+1555x"} {
		if err := v.Struct(payload{Phone: bad}); err == nil {
			t.Errorf("%q should fail the e164 rule", bad)
		}
	}
}

func TestRespondClassified(t *testing.T) {
	rec := httptest.NewRecorder()
	respondClassified(rec, 502, errors.New("network request failed"), "workout feed")

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body struct {
		Error      string `json:"error"`
		Actionable string `json:"actionable"`
		Retryable  bool   `json:"retryable"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == "" || body.Actionable == "" {
		t.Errorf("user message and hint must be present: %+v", body)
	}
	if body.Error == "network request failed" {
		t.Error("raw error text must not reach the client")
	}
	if !body.Retryable {
		t.Error("network failures are retryable")
	}
}
