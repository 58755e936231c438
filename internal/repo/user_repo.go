package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fitsquad/server/internal/model"
)

// ErrPhoneTaken signals a unique violation on the phone number column.
var ErrPhoneTaken = errors.New("phone number already registered")

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	Create(ctx context.Context, phone, passwordHash, displayName string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

// Create inserts a new user. A duplicate phone number surfaces as
// ErrPhoneTaken.
func (r *userRepo) Create(ctx context.Context, phone, passwordHash, displayName string) (model.User, error) {
	var user model.User
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (phone_number, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, phone, passwordHash, displayName).Scan(&idStr, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.User{}, ErrPhoneTaken
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("parse user ID: %w", err)
	}
	user.PhoneNumber = phone
	user.PasswordHash = passwordHash
	user.DisplayName = displayName
	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.get(ctx, `
		SELECT id, phone_number, password_hash, display_name, created_at
		FROM users
		WHERE id = $1
	`, id)
}

// GetByPhone retrieves a user by phone number
func (r *userRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.get(ctx, `
		SELECT id, phone_number, password_hash, display_name, created_at
		FROM users
		WHERE phone_number = $1
	`, phone)
}

func (r *userRepo) get(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var user model.User
	var idStr string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&idStr,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, fmt.Errorf("user not found: %w", err)
		}
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("parse user ID: %w", err)
	}
	return user, nil
}
