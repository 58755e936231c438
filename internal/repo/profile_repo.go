package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fitsquad/server/internal/model"
)

// ProfileRepo defines the interface for profile repository operations
type ProfileRepo interface {
	EnsureExists(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	Update(ctx context.Context, profile model.Profile) error
}

type profileRepo struct {
	db *sql.DB
}

// NewProfileRepo creates a new ProfileRepo instance
func NewProfileRepo(db *sql.DB) ProfileRepo {
	return &profileRepo{db: db}
}

// EnsureExists inserts an empty profile row if the user has none yet.
func (r *profileRepo) EnsureExists(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Get retrieves the profile for a user.
func (r *profileRepo) Get(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	var p model.Profile
	var prefs pq.StringArray
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, email, activity_preferences, pace_min, pace_max,
		       home_latitude, home_longitude, home_name, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.Email,
		&prefs,
		&p.PaceMin,
		&p.PaceMax,
		&p.HomeLatitude,
		&p.HomeLongitude,
		&p.HomeName,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Profile{}, fmt.Errorf("profile not found: %w", err)
		}
		return model.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	p.ActivityPreferences = []string(prefs)
	return p, nil
}

// Update overwrites the mutable profile fields.
func (r *profileRepo) Update(ctx context.Context, profile model.Profile) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET email = $2,
		    activity_preferences = $3,
		    pace_min = $4,
		    pace_max = $5,
		    home_latitude = $6,
		    home_longitude = $7,
		    home_name = $8,
		    updated_at = now()
		WHERE user_id = $1
	`,
		profile.UserID,
		profile.Email,
		pq.StringArray(profile.ActivityPreferences),
		profile.PaceMin,
		profile.PaceMax,
		profile.HomeLatitude,
		profile.HomeLongitude,
		profile.HomeName,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}
