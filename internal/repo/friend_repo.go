package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fitsquad/server/internal/model"
)

// FriendRepo defines the interface for friendship repository operations
type FriendRepo interface {
	Add(ctx context.Context, userID, friendID uuid.UUID) error
	Remove(ctx context.Context, userID, friendID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]model.User, error)
}

type friendRepo struct {
	db *sql.DB
}

// NewFriendRepo creates a new FriendRepo instance
func NewFriendRepo(db *sql.DB) FriendRepo {
	return &friendRepo{db: db}
}

// Add stores the friendship in both directions in one transaction.
func (r *friendRepo) Add(ctx context.Context, userID, friendID uuid.UUID) error {
	if userID == friendID {
		return fmt.Errorf("cannot befriend yourself")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, pair := range [][2]uuid.UUID{{userID, friendID}, {friendID, userID}} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO friendships (user_id, friend_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, friend_id) DO NOTHING
		`, pair[0], pair[1]); err != nil {
			return fmt.Errorf("insert friendship: %w", err)
		}
	}
	return tx.Commit()
}

// Remove deletes both directions of the friendship.
func (r *friendRepo) Remove(ctx context.Context, userID, friendID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`, userID, friendID)
	if err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	return nil
}

// List returns the user's friends as user records.
func (r *friendRepo) List(ctx context.Context, userID uuid.UUID) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.phone_number, u.display_name, u.created_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.display_name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	var friends []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.PhoneNumber, &u.DisplayName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends: %w", err)
	}
	return friends, nil
}
