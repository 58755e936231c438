package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fitsquad/server/internal/auth"
	"github.com/fitsquad/server/internal/http/handlers"
	"github.com/fitsquad/server/internal/middleware"
	"github.com/fitsquad/server/internal/repo"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Profile  *handlers.ProfileHandler
	Workout  *handlers.WorkoutHandler
	Location *handlers.LocationHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, jwtService *auth.JWTService, userRepo repo.UserRepo) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/request_otp", h.Auth.HandleRequestOTP)
		r.Post("/register", h.Auth.HandleRegister)
		r.Post("/login", h.Auth.HandleLogin)
		r.Post("/refresh", h.Auth.HandleRefresh)
		r.Post("/logout", h.Auth.HandleLogout)
	})

	// Protected API routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtService, userRepo))
		r.Get("/me", h.Auth.HandleMe)

		r.Route("/api", func(r chi.Router) {
			r.Get("/profile", h.Profile.HandleGet)
			r.Put("/profile", h.Profile.HandleUpdate)

			r.Post("/location/resolve", h.Location.HandleResolve)

			r.Get("/workouts", h.Workout.HandleFeed)
			r.Post("/workouts", h.Workout.HandleCreate)
			r.Post("/workouts/{id}/join", h.Workout.HandleJoin)
			r.Post("/workouts/{id}/leave", h.Workout.HandleLeave)

			r.Get("/friends", h.Workout.HandleFriendsList)
			r.Post("/friends", h.Workout.HandleFriendAdd)
			r.Delete("/friends/{id}", h.Workout.HandleFriendRemove)
		})
	})

	// Page navigation. The gate decides redirects from session state
	// alone; the pages themselves are served by the PWA shell.
	gate := middleware.SessionGate(&middleware.CookieSessionChecker{
		Verify: func(token string) error {
			_, err := jwtService.VerifyToken(token)
			return err
		},
	})
	r.Group(func(r chi.Router) {
		r.Use(gate)
		pages := []string{
			"/", "/feed", "/login", "/register", "/profile-setup",
			"/workout", "/profile", "/friends",
		}
		for _, p := range pages {
			r.Get(p, serveShell)
			if p != "/" {
				r.Get(p+"/*", serveShell)
			}
		}
	})

	return r
}

// serveShell is the single-page app entry point. Static asset serving
// is deployment-specific, so the API ships a minimal placeholder.
func serveShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!doctype html><title>FitSquad</title>"))
}
