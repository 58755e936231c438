package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fitsquad/server/internal/middleware"
	"github.com/fitsquad/server/internal/model"
	"github.com/fitsquad/server/internal/repo"
	"github.com/fitsquad/server/internal/validate"
)

// ProfileHandler serves the authenticated user's profile.
type ProfileHandler struct {
	profiles repo.ProfileRepo
	log      *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles repo.ProfileRepo, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

type profileResponse struct {
	Email               *string  `json:"email"`
	ActivityPreferences []string `json:"activity_preferences"`
	PaceMin             *float64 `json:"pace_min"`
	PaceMax             *float64 `json:"pace_max"`
	HomeLatitude        *float64 `json:"home_latitude"`
	HomeLongitude       *float64 `json:"home_longitude"`
	HomeName            *string  `json:"home_name"`
}

type updateProfileRequest struct {
	Email               string   `json:"email"`
	ActivityPreferences []string `json:"activity_preferences"`
	PaceMin             *float64 `json:"pace_min"`
	PaceMax             *float64 `json:"pace_max"`
	HomeLatitude        *float64 `json:"home_latitude"`
	HomeLongitude       *float64 `json:"home_longitude"`
	HomeName            *string  `json:"home_name"`
}

// fieldErrors collects per-field validation messages. Validation
// failures are resolved here and never thrown further.
func (req *updateProfileRequest) fieldErrors() map[string]string {
	errs := make(map[string]string)
	if res := validate.Email(req.Email); !res.Valid {
		errs["email"] = res.Message
	}
	if res := validate.PaceRange(req.PaceMin, req.PaceMax); !res.Valid {
		errs["pace"] = res.Message
	}
	prefs := req.ActivityPreferences
	if prefs == nil {
		prefs = []string{}
	}
	if res := validate.ActivityPreferences(prefs); !res.Valid {
		errs["activity_preferences"] = res.Message
	}
	if (req.HomeLatitude == nil) != (req.HomeLongitude == nil) {
		errs["home"] = "latitude and longitude must be set together"
	}
	if req.HomeLatitude != nil && (*req.HomeLatitude < -90 || *req.HomeLatitude > 90) {
		errs["home"] = "latitude out of range"
	}
	if req.HomeLongitude != nil && (*req.HomeLongitude < -180 || *req.HomeLongitude > 180) {
		errs["home"] = "longitude out of range"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// HandleGet handles GET /api/profile (protected).
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.log.Warn("profile load failed", zap.Error(err))
		respondClassified(w, http.StatusNotFound, err, "profile")
		return
	}
	respondJSON(w, http.StatusOK, profileResponse{
		Email:               profile.Email,
		ActivityPreferences: profile.ActivityPreferences,
		PaceMin:             profile.PaceMin,
		PaceMax:             profile.PaceMax,
		HomeLatitude:        profile.HomeLatitude,
		HomeLongitude:       profile.HomeLongitude,
		HomeName:            profile.HomeName,
	})
}

// HandleUpdate handles PUT /api/profile (protected).
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.fieldErrors(); errs != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": errs,
		})
		return
	}

	profile := model.Profile{
		UserID:              userID,
		ActivityPreferences: req.ActivityPreferences,
		PaceMin:             req.PaceMin,
		PaceMax:             req.PaceMax,
		HomeLatitude:        req.HomeLatitude,
		HomeLongitude:       req.HomeLongitude,
		HomeName:            req.HomeName,
	}
	if req.Email != "" {
		profile.Email = &req.Email
	}
	if profile.ActivityPreferences == nil {
		profile.ActivityPreferences = []string{}
	}

	if err := h.profiles.Update(r.Context(), profile); err != nil {
		h.log.Warn("profile update failed", zap.Error(err))
		respondClassified(w, http.StatusInternalServerError, err, "profile update")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}
