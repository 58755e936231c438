package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/fitsquad/server/internal/auth"
	"github.com/fitsquad/server/internal/config"
	"github.com/fitsquad/server/internal/db"
	apihttp "github.com/fitsquad/server/internal/http"
	"github.com/fitsquad/server/internal/http/handlers"
	"github.com/fitsquad/server/internal/location"
	"github.com/fitsquad/server/internal/repo"
)

func main() {
	// Load .env from CWD if present (env vars override)
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := runMigrations(database); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repo.NewUserRepo(database)
	profileRepo := repo.NewProfileRepo(database)
	otpRepo := repo.NewOtpRepo(database)
	refreshRepo := repo.NewRefreshRepo(database)
	workoutRepo := repo.NewWorkoutRepo(database)
	friendRepo := repo.NewFriendRepo(database)

	// Auth services
	otpService := auth.NewOTPService(otpRepo, cfg.OTPSalt, cfg.DevMode)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewService(otpService, jwtService, userRepo, profileRepo, refreshRepo)

	// Location detection chain
	store, err := location.NewFileStore(cfg.LocationCacheDir)
	if err != nil {
		log.Fatal("failed to open location cache", zap.Error(err))
	}
	geocoder := location.NewGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent)
	locationService := location.NewService(geocoder, location.NewCache(store), log)

	// Handlers
	v := handlers.NewValidator()
	h := apihttp.Handlers{
		Auth:     handlers.NewAuthHandler(authService, v, log),
		Profile:  handlers.NewProfileHandler(profileRepo, log),
		Workout:  handlers.NewWorkoutHandler(workoutRepo, friendRepo, log),
		Location: handlers.NewLocationHandler(locationService, log),
	}

	router := apihttp.NewRouter(h, jwtService, userRepo)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// newLogger builds the zap logger for the given environment.
func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the repo root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
