package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fitsquad/server/internal/apperror"
	"github.com/fitsquad/server/internal/validate"
)

// NewValidator builds the request validator with the custom e164 rule.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("e164", func(fl validator.FieldLevel) bool {
		return validate.PhoneNumber(fl.Field().String()).Valid
	})
	return v
}

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondClassified classifies an operational failure and surfaces the
// user message plus the actionable hint; the raw error never reaches
// the client.
func respondClassified(w http.ResponseWriter, statusCode int, err error, context string) {
	info := apperror.Classify(err, context)
	respondJSON(w, statusCode, map[string]interface{}{
		"error":      info.UserMessage,
		"actionable": info.Actionable,
		"retryable":  info.Retryable,
	})
}
