package location

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	positionTimeout    = 10 * time.Second
	positionMaximumAge = 5 * time.Minute
)

// Source tells where a detection result came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceGPS   Source = "gps"
)

// Result is a successful detection. Attempt is a monotonically
// increasing per-owner token: a caller that triggers overlapping
// detections must discard results whose token is below the latest one
// it dispatched.
type Result struct {
	Coordinates Coordinates
	Name        string
	Source      Source
	Attempt     uint64
}

// Service runs the detection fallback chain. Each Detect call is one
// attempt: cache check strictly precedes any network access, and a
// stale attempt never overwrites the cache behind a newer one from the
// same owner. Cache entries and attempt counters are keyed by owner,
// so one user's detection never observes or suppresses another's.
type Service struct {
	geocoder *Geocoder
	cache    *Cache
	log      *zap.Logger
	attempts sync.Map // owner -> *atomic.Uint64
}

// NewService wires the detection chain.
func NewService(geocoder *Geocoder, cache *Cache, log *zap.Logger) *Service {
	return &Service{geocoder: geocoder, cache: cache, log: log}
}

func (s *Service) counter(owner string) *atomic.Uint64 {
	c, _ := s.attempts.LoadOrStore(owner, new(atomic.Uint64))
	return c.(*atomic.Uint64)
}

// Detect resolves the owner's current location: capability and
// permission gates, then the owner's cache entry, then a fresh fix
// from the provider, reverse-geocoded to an area name. A nil provider
// means the platform has no geolocation capability. Failures map to
// the package error values.
func (s *Service) Detect(ctx context.Context, owner string, provider PositionProvider) (*Result, error) {
	counter := s.counter(owner)
	token := counter.Add(1)

	if provider == nil {
		return nil, ErrNotAvailable
	}
	// "prompt" is treated as try-anyway: the position request itself
	// surfaces the permission dialog.
	if provider.Permission(ctx) == PermissionDenied {
		return nil, ErrPermissionDenied
	}

	if cached := s.cache.Get(owner); cached != nil {
		return &Result{
			Coordinates: cached.Coordinates,
			Name:        cached.Name,
			Source:      SourceCache,
			Attempt:     token,
		}, nil
	}

	coords, err := provider.CurrentPosition(ctx, PositionOptions{
		Timeout:    positionTimeout,
		MaximumAge: positionMaximumAge,
	})
	if err != nil {
		s.log.Warn("position request failed", zap.Error(err))
		return nil, err
	}

	name, geocodeErr := s.geocoder.ReverseGeocode(ctx, coords)
	if geocodeErr != nil {
		// A failed lookup degrades the name, not the detection. The
		// degraded entry is not cached, so the next attempt retries
		// the lookup instead of serving "Unknown location" for 24h.
		s.log.Warn("reverse geocode failed", zap.Error(geocodeErr))
		name = "Unknown location"
	}

	if geocodeErr == nil && counter.Load() == token {
		if err := s.cache.Put(owner, coords, name); err != nil {
			s.log.Warn("location cache write failed", zap.Error(err))
		}
	}

	return &Result{
		Coordinates: coords,
		Name:        name,
		Source:      SourceGPS,
		Attempt:     token,
	}, nil
}
