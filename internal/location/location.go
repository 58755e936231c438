// Package location resolves a best-effort place for the current user:
// permission gate, then a 24h cache, then a fresh device fix that is
// reverse-geocoded to an area name.
package location

import (
	"context"
	"errors"
	"time"
)

// Coordinates is a WGS 84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point is in range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// CachedLocation is the single cached detection result.
type CachedLocation struct {
	Coordinates
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// Permission mirrors the platform permission state for geolocation.
type Permission int

const (
	PermissionPrompt Permission = iota
	PermissionGranted
	PermissionDenied
)

// PositionOptions bounds a device position request.
type PositionOptions struct {
	Timeout    time.Duration
	MaximumAge time.Duration
}

// PositionProvider abstracts the device geolocation capability. A nil
// provider means the platform has none.
type PositionProvider interface {
	Permission(ctx context.Context) Permission
	CurrentPosition(ctx context.Context, opts PositionOptions) (Coordinates, error)
}

// Errors surfaced by detection. They degrade to user messages upstream;
// nothing here is fatal.
var (
	ErrNotAvailable     = errors.New("location services not available")
	ErrPermissionDenied = errors.New("location access denied")
	ErrPositionTimeout  = errors.New("location request timeout")
	ErrUnavailable      = errors.New("location unavailable")
)
