package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the requested key is not present in a cache.
var ErrCacheMiss = errors.New("cache miss")

// ErrNotFound indicates the requested entity does not exist remotely.
var ErrNotFound = errors.New("not found")

// Geocoder represents any external geocoding provider.
type Geocoder interface {
	// Find resolves a free-text query into zero or more locations.
	// An empty slice with a nil error is a valid "nothing found" outcome;
	// a non-nil error means the attempt itself failed.
	Find(ctx context.Context, query string, params SearchParams) ([]Location, error)

	// Name returns the provider identifier.
	Name() string
}

// Store is a shared out-of-process key-value store used by the response
// cache and the rate limiter. Values are opaque serialized byte strings.
type Store interface {
	// Get retrieves the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes key from the store.
	Del(ctx context.Context, key string) error

	// IncrExpire atomically increments the counter stored under key and
	// re-sets its expiry to ttl, returning the new counter value.
	IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// ProfileService is the narrow client interface into the remote
// user-profile service.
type ProfileService interface {
	// Get retrieves a profile by identity. Returns ErrNotFound for
	// unregistered identities.
	Get(ctx context.Context, id int64) (*Profile, error)

	// SetLanguage stores the user's preferred language code.
	SetLanguage(ctx context.Context, id int64, code string) error

	// SetLocation stores the user's last known location.
	SetLocation(ctx context.Context, id int64, latitude, longitude float64) error
}

// RequestGate decides whether a request from the given identity may
// proceed. Implementations are expected to fail open.
type RequestGate interface {
	Allow(ctx context.Context, identity string) bool
}
