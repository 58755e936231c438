// Package apperror maps arbitrary failures onto a small user-facing
// taxonomy. Handlers classify an error once, log the structured record,
// and surface Info.UserMessage plus Info.Actionable to the client; the
// raw error stays attached for diagnostics only.
package apperror

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Type is the failure category an error is classified into.
type Type string

const (
	TypeNetwork        Type = "network"
	TypeValidation     Type = "validation"
	TypeAuthentication Type = "authentication"
	TypePermission     Type = "permission"
	TypeData           Type = "data"
	TypePhone          Type = "phone"
	TypeUnknown        Type = "unknown"
)

// Info is the classified view of one failure. It is immutable and lives
// only for the duration of handling that failure.
type Info struct {
	Type        Type
	Message     string
	UserMessage string
	Actionable  string
	Retryable   bool
	Err         error
	Context     string
}

func (i *Info) Error() string { return i.Message }

func (i *Info) Unwrap() error { return i.Err }

// StatusError carries an HTTP status from an upstream provider so it
// can participate in classification.
type StatusError struct {
	Status int
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unexpected status"
}

type preset struct {
	userMessage string
	actionable  string
	retryable   bool
}

var presets = map[Type]preset{
	TypeNetwork: {
		userMessage: "Connection problem. Please check your internet.",
		actionable:  "Check your connection and try again.",
		retryable:   true,
	},
	TypeValidation: {
		userMessage: "Some of the entered information is not valid.",
		actionable:  "Review the highlighted fields and correct them.",
		retryable:   false,
	},
	TypeAuthentication: {
		userMessage: "Your session has expired.",
		actionable:  "Please log in again.",
		retryable:   false,
	},
	TypePermission: {
		userMessage: "Access to this feature was denied.",
		actionable:  "Allow the permission in your device settings.",
		retryable:   false,
	},
	TypeData: {
		userMessage: "The requested data could not be found.",
		actionable:  "Refresh and try again.",
		retryable:   true,
	},
	TypePhone: {
		userMessage: "There is a problem with this phone number.",
		actionable:  "Double-check the number and try again.",
		retryable:   false,
	},
	TypeUnknown: {
		userMessage: "Something went wrong.",
		actionable:  "Please try again.",
		retryable:   true,
	},
}

func status(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// detectType walks the indicator checks in a fixed order; the first
// match wins. The categories are not disjoint in the input space, only
// the ordering makes them exclusive.
func detectType(err error, context string) Type {
	msg := strings.ToLower(err.Error())
	code := status(err)
	ctx := strings.ToLower(context)

	switch {
	case containsAny(msg, "network", "fetch", "timeout") || (code >= 500 && code < 600):
		return TypeNetwork
	case code == 401 || code == 403 || containsAny(msg, "unauthorized", "session"):
		return TypeAuthentication
	case containsAny(msg, "permission", "denied", "blocked"):
		return TypePermission
	case strings.Contains(ctx, "phone") || containsAny(msg, "phone"):
		return TypePhone
	case code == 400 || containsAny(msg, "invalid", "required"):
		return TypeValidation
	case code == 404 || strings.Contains(msg, "not found"):
		return TypeData
	default:
		return TypeUnknown
	}
}

// refineMessage sharpens the actionable hint for phone and validation
// failures based on the raw message text.
func refineMessage(t Type, msg string, info *Info) {
	lower := strings.ToLower(msg)
	switch t {
	case TypePhone:
		switch {
		case containsAny(lower, "already registered", "already exists", "taken"):
			info.UserMessage = "This phone number is already registered."
			info.Actionable = "Log in instead, or use a different number."
		case containsAny(lower, "country code"):
			info.UserMessage = "The country code looks wrong."
			info.Actionable = "Enter the number with its international prefix, e.g. +1."
		}
	case TypeValidation:
		if containsAny(lower, "required") {
			info.Actionable = "Fill in the missing fields."
		}
	}
}

// New classifies err into an Info, logging the structured record.
// customMessage, when non-empty, overrides the derived user message.
func New(err error, context, customMessage string) *Info {
	if err == nil {
		return nil
	}
	t := detectType(err, context)
	p := presets[t]

	info := &Info{
		Type:        t,
		Message:     err.Error(),
		UserMessage: p.userMessage,
		Actionable:  p.actionable,
		Retryable:   p.retryable,
		Err:         err,
		Context:     context,
	}
	refineMessage(t, info.Message, info)
	if customMessage != "" {
		info.UserMessage = customMessage
	}

	zap.L().Warn("classified error",
		zap.String("type", string(t)),
		zap.String("error", info.Message),
		zap.String("context", context),
		zap.Bool("retryable", info.Retryable),
	)
	return info
}

// Classify is New without a message override.
func Classify(err error, context string) *Info {
	return New(err, context, "")
}
