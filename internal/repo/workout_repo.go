package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitsquad/server/internal/model"
)

// WorkoutRepo defines the interface for workout repository operations
type WorkoutRepo interface {
	Create(ctx context.Context, w model.Workout) (model.Workout, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Workout, error)
	ListUpcoming(ctx context.Context, after time.Time, limit int) ([]model.Workout, error)
	Join(ctx context.Context, workoutID, userID uuid.UUID) error
	Leave(ctx context.Context, workoutID, userID uuid.UUID) error
}

type workoutRepo struct {
	db *sql.DB
}

// NewWorkoutRepo creates a new WorkoutRepo instance
func NewWorkoutRepo(db *sql.DB) WorkoutRepo {
	return &workoutRepo{db: db}
}

// Create inserts a workout hosted by the given user.
func (r *workoutRepo) Create(ctx context.Context, w model.Workout) (model.Workout, error) {
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO workouts (host_id, activity, starts_at, location_name, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, w.HostID, w.Activity, w.StartsAt, w.LocationName, w.Latitude, w.Longitude).Scan(&idStr, &w.CreatedAt)
	if err != nil {
		return model.Workout{}, fmt.Errorf("insert workout: %w", err)
	}
	w.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Workout{}, fmt.Errorf("parse workout ID: %w", err)
	}
	return w, nil
}

// GetByID retrieves a single workout.
func (r *workoutRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Workout, error) {
	var w model.Workout
	err := r.db.QueryRowContext(ctx, `
		SELECT id, host_id, activity, starts_at, location_name, latitude, longitude, created_at
		FROM workouts
		WHERE id = $1
	`, id).Scan(&w.ID, &w.HostID, &w.Activity, &w.StartsAt, &w.LocationName, &w.Latitude, &w.Longitude, &w.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Workout{}, fmt.Errorf("workout not found: %w", err)
		}
		return model.Workout{}, fmt.Errorf("query workout: %w", err)
	}
	return w, nil
}

// ListUpcoming returns workouts starting after the given time, soonest
// first.
func (r *workoutRepo) ListUpcoming(ctx context.Context, after time.Time, limit int) ([]model.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, host_id, activity, starts_at, location_name, latitude, longitude, created_at
		FROM workouts
		WHERE starts_at > $1
		ORDER BY starts_at ASC
		LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	var workouts []model.Workout
	for rows.Next() {
		var w model.Workout
		if err := rows.Scan(&w.ID, &w.HostID, &w.Activity, &w.StartsAt, &w.LocationName, &w.Latitude, &w.Longitude, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workouts: %w", err)
	}
	return workouts, nil
}

// Join records participation; joining twice is a no-op.
func (r *workoutRepo) Join(ctx context.Context, workoutID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workout_participants (workout_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (workout_id, user_id) DO NOTHING
	`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("join workout: %w", err)
	}
	return nil
}

// Leave removes participation.
func (r *workoutRepo) Leave(ctx context.Context, workoutID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM workout_participants
		WHERE workout_id = $1 AND user_id = $2
	`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("leave workout: %w", err)
	}
	return nil
}
