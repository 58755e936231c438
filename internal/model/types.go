package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account, keyed by phone number.
type User struct {
	ID           uuid.UUID
	PhoneNumber  string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Profile holds the optional workout preferences attached to a user.
// Pace values are minutes per kilometer.
type Profile struct {
	UserID              uuid.UUID
	Email               *string
	ActivityPreferences []string
	PaceMin             *float64
	PaceMax             *float64
	HomeLatitude        *float64
	HomeLongitude       *float64
	HomeName            *string
	UpdatedAt           time.Time
}

// Workout is a planned session that friends can join.
type Workout struct {
	ID           uuid.UUID
	HostID       uuid.UUID
	Activity     string
	StartsAt     time.Time
	LocationName string
	Latitude     float64
	Longitude    float64
	CreatedAt    time.Time
}

// Friendship links two users. Rows are stored in both directions, so
// listing a user's friends is a single-column lookup.
type Friendship struct {
	UserID    uuid.UUID
	FriendID  uuid.UUID
	CreatedAt time.Time
}

// OtpSession represents an OTP session for phone verification
type OtpSession struct {
	ID            uuid.UUID
	PhoneNumber   string
	OTPHash       []byte
	ExpiresAt     time.Time
	ConsumedAt    *time.Time
	CreatedAt     time.Time
	AttemptCount  int
	LastAttemptAt *time.Time
	RequestIP     *string
	UserAgent     *string
}

// RefreshSession represents a refresh token session
type RefreshSession struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *uuid.UUID
}
