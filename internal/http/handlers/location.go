package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fitsquad/server/internal/location"
	"github.com/fitsquad/server/internal/middleware"
)

// LocationHandler resolves a place name for the client. The browser
// supplies the device fix (or reports why it could not); caching and
// reverse geocoding run here.
type LocationHandler struct {
	svc *location.Service
	log *zap.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(svc *location.Service, log *zap.Logger) *LocationHandler {
	return &LocationHandler{svc: svc, log: log}
}

type resolveLocationRequest struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	PermissionDenied bool     `json:"permission_denied"`
	Unsupported      bool     `json:"unsupported"`
}

// clientPosition adapts the posted fix to the PositionProvider the
// detection chain expects.
type clientPosition struct {
	req resolveLocationRequest
}

func (p *clientPosition) Permission(ctx context.Context) location.Permission {
	if p.req.PermissionDenied {
		return location.PermissionDenied
	}
	if p.req.Latitude != nil && p.req.Longitude != nil {
		return location.PermissionGranted
	}
	return location.PermissionPrompt
}

func (p *clientPosition) CurrentPosition(ctx context.Context, opts location.PositionOptions) (location.Coordinates, error) {
	if p.req.Latitude == nil || p.req.Longitude == nil {
		return location.Coordinates{}, location.ErrUnavailable
	}
	coords := location.Coordinates{Latitude: *p.req.Latitude, Longitude: *p.req.Longitude}
	if !coords.Valid() {
		return location.Coordinates{}, location.ErrUnavailable
	}
	return coords, nil
}

// HandleResolve handles POST /api/location/resolve (protected). The
// cache entry is keyed by the authenticated user.
func (h *LocationHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req resolveLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var provider location.PositionProvider
	if !req.Unsupported {
		provider = &clientPosition{req: req}
	}

	res, err := h.svc.Detect(r.Context(), userID.String(), provider)
	if err != nil {
		h.log.Warn("location detection failed", zap.Error(err))
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, location.ErrNotAvailable),
			errors.Is(err, location.ErrUnavailable):
			status = http.StatusBadRequest
		case errors.Is(err, location.ErrPermissionDenied):
			status = http.StatusForbidden
		}
		respondClassified(w, status, err, "location detection")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"latitude":  res.Coordinates.Latitude,
		"longitude": res.Coordinates.Longitude,
		"name":      res.Name,
		"source":    res.Source,
		"attempt":   res.Attempt,
	})
}
