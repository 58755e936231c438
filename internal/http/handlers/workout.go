package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitsquad/server/internal/location"
	"github.com/fitsquad/server/internal/middleware"
	"github.com/fitsquad/server/internal/model"
	"github.com/fitsquad/server/internal/repo"
	"github.com/fitsquad/server/internal/validate"
)

const feedLimit = 50

// WorkoutHandler serves the workout feed plus the friends list.
type WorkoutHandler struct {
	workouts repo.WorkoutRepo
	friends  repo.FriendRepo
	log      *zap.Logger
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workouts repo.WorkoutRepo, friends repo.FriendRepo, log *zap.Logger) *WorkoutHandler {
	return &WorkoutHandler{workouts: workouts, friends: friends, log: log}
}

type createWorkoutRequest struct {
	Activity     string    `json:"activity"`
	StartsAt     time.Time `json:"starts_at"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
}

type workoutResponse struct {
	ID           string    `json:"id"`
	HostID       string    `json:"host_id"`
	Activity     string    `json:"activity"`
	StartsAt     time.Time `json:"starts_at"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
}

func toWorkoutResponse(w model.Workout) workoutResponse {
	return workoutResponse{
		ID:           w.ID.String(),
		HostID:       w.HostID.String(),
		Activity:     w.Activity,
		StartsAt:     w.StartsAt,
		LocationName: w.LocationName,
		Latitude:     w.Latitude,
		Longitude:    w.Longitude,
	}
}

// HandleFeed handles GET /api/workouts (protected). Optional lat/lng
// query params annotate each workout with its distance from the caller.
func (h *WorkoutHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	workouts, err := h.workouts.ListUpcoming(r.Context(), time.Now(), feedLimit)
	if err != nil {
		h.log.Warn("feed query failed", zap.Error(err))
		respondClassified(w, http.StatusInternalServerError, err, "workout feed")
		return
	}

	var origin *location.Coordinates
	q := r.URL.Query()
	if q.Get("lat") != "" && q.Get("lng") != "" {
		lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
		lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
		if latErr == nil && lngErr == nil {
			c := location.Coordinates{Latitude: lat, Longitude: lng}
			if c.Valid() {
				origin = &c
			}
		}
	}

	out := make([]workoutResponse, 0, len(workouts))
	for _, wk := range workouts {
		resp := toWorkoutResponse(wk)
		if origin != nil {
			d := location.Distance(origin.Latitude, origin.Longitude, wk.Latitude, wk.Longitude)
			resp.DistanceKm = &d
		}
		out = append(out, resp)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"workouts": out})
}

// HandleCreate handles POST /api/workouts (protected).
func (h *WorkoutHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.ActivityPreferences([]string{req.Activity}); !res.Valid {
		respondWithError(w, http.StatusBadRequest, res.Message)
		return
	}
	coords := location.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	if !coords.Valid() {
		respondWithError(w, http.StatusBadRequest, "workout location out of range")
		return
	}
	if req.StartsAt.Before(time.Now()) {
		respondWithError(w, http.StatusBadRequest, "workout must start in the future")
		return
	}
	if req.LocationName == "" {
		respondWithError(w, http.StatusBadRequest, "location name is required")
		return
	}

	created, err := h.workouts.Create(r.Context(), model.Workout{
		HostID:       userID,
		Activity:     req.Activity,
		StartsAt:     req.StartsAt,
		LocationName: req.LocationName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		h.log.Warn("workout create failed", zap.Error(err))
		respondClassified(w, http.StatusInternalServerError, err, "workout create")
		return
	}
	respondJSON(w, http.StatusCreated, toWorkoutResponse(created))
}

// HandleJoin handles POST /api/workouts/{id}/join (protected).
func (h *WorkoutHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	h.participate(w, r, func(workoutID, userID uuid.UUID) error {
		return h.workouts.Join(r.Context(), workoutID, userID)
	}, "joined")
}

// HandleLeave handles POST /api/workouts/{id}/leave (protected).
func (h *WorkoutHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	h.participate(w, r, func(workoutID, userID uuid.UUID) error {
		return h.workouts.Leave(r.Context(), workoutID, userID)
	}, "left")
}

// participate resolves the chi URL param, checks the workout exists and
// applies the membership change.
func (h *WorkoutHandler) participate(w http.ResponseWriter, r *http.Request,
	op func(workoutID, userID uuid.UUID) error, verb string) {

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid workout id")
		return
	}
	if _, err := h.workouts.GetByID(r.Context(), workoutID); err != nil {
		respondClassified(w, http.StatusNotFound, err, "workout lookup")
		return
	}
	if err := op(workoutID, userID); err != nil {
		h.log.Warn("participation change failed", zap.Error(err))
		respondClassified(w, http.StatusInternalServerError, err, "workout participation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": verb})
}

type addFriendRequest struct {
	FriendID string `json:"friend_id"`
}

// HandleFriendsList handles GET /api/friends (protected).
func (h *WorkoutHandler) HandleFriendsList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	friends, err := h.friends.List(r.Context(), userID)
	if err != nil {
		h.log.Warn("friends query failed", zap.Error(err))
		respondClassified(w, http.StatusInternalServerError, err, "friends list")
		return
	}
	out := make([]userResponse, 0, len(friends))
	for _, f := range friends {
		out = append(out, userResponse{
			ID:          f.ID.String(),
			PhoneNumber: f.PhoneNumber,
			DisplayName: f.DisplayName,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"friends": out})
}

// HandleFriendAdd handles POST /api/friends (protected).
func (h *WorkoutHandler) HandleFriendAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req addFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid friend id")
		return
	}
	if err := h.friends.Add(r.Context(), userID, friendID); err != nil {
		h.log.Warn("friend add failed", zap.Error(err))
		respondClassified(w, http.StatusBadRequest, err, "friend add")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "friend added"})
}

// HandleFriendRemove handles DELETE /api/friends/{id} (protected).
func (h *WorkoutHandler) HandleFriendRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	friendID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid friend id")
		return
	}
	if err := h.friends.Remove(r.Context(), userID, friendID); err != nil {
		h.log.Warn("friend remove failed", zap.Error(err))
		respondClassified(w, http.StatusInternalServerError, err, "friend remove")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "friend removed"})
}
