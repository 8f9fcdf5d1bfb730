package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/profile"
)

// fakeRemote is a scripted stand-in for the remote profile service.
type fakeRemote struct {
	profiles map[int64]*domain.Profile
	getCalls int
	err      error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{profiles: make(map[int64]*domain.Profile)}
}

func (f *fakeRemote) Get(_ context.Context, id int64) (*domain.Profile, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeRemote) SetLanguage(_ context.Context, id int64, code string) error {
	if f.err != nil {
		return f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Language = code
	return nil
}

func (f *fakeRemote) SetLocation(_ context.Context, id int64, latitude, longitude float64) error {
	if f.err != nil {
		return f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Location = &domain.Coordinates{Latitude: latitude, Longitude: longitude}
	return nil
}

func TestCachedClient_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("should serve repeated reads from the cache", func(t *testing.T) {
		remote := newFakeRemote()
		remote.profiles[42] = &domain.Profile{ID: 42, Language: "en"}
		client := profile.NewCachedClient(remote, time.Minute)

		first, err := client.Get(ctx, 42)
		require.NoError(t, err)
		second, err := client.Get(ctx, 42)
		require.NoError(t, err)

		require.Equal(t, first, second)
		require.Equal(t, 1, remote.getCalls)
	})

	t.Run("should cache negative lookups", func(t *testing.T) {
		remote := newFakeRemote()
		client := profile.NewCachedClient(remote, time.Minute)

		_, err := client.Get(ctx, 42)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = client.Get(ctx, 42)
		require.ErrorIs(t, err, domain.ErrNotFound)

		require.Equal(t, 1, remote.getCalls)
	})

	t.Run("should return unknown when the remote service is unreachable", func(t *testing.T) {
		remote := newFakeRemote()
		remote.err = errors.New("connection refused")
		client := profile.NewCachedClient(remote, time.Minute)

		p, err := client.Get(ctx, 42)

		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("should not cache the unknown outcome", func(t *testing.T) {
		remote := newFakeRemote()
		remote.err = errors.New("connection refused")
		client := profile.NewCachedClient(remote, time.Minute)

		_, _ = client.Get(ctx, 42)
		remote.err = nil
		remote.profiles[42] = &domain.Profile{ID: 42}

		p, err := client.Get(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, p)
	})
}

func TestCachedClient_Invalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("should not serve a stale value after SetLocation", func(t *testing.T) {
		remote := newFakeRemote()
		remote.profiles[42] = &domain.Profile{ID: 42}
		client := profile.NewCachedClient(remote, time.Minute)

		_, err := client.Get(ctx, 42)
		require.NoError(t, err)

		require.NoError(t, client.SetLocation(ctx, 42, 51.5074, -0.1278))

		p, err := client.Get(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, p.Location)
		require.InDelta(t, 51.5074, p.Location.Latitude, 1e-9)
		require.Equal(t, 2, remote.getCalls)
	})

	t.Run("should not serve a stale value after SetLanguage", func(t *testing.T) {
		remote := newFakeRemote()
		remote.profiles[42] = &domain.Profile{ID: 42, Language: "en"}
		client := profile.NewCachedClient(remote, time.Minute)

		_, err := client.Get(ctx, 42)
		require.NoError(t, err)

		require.NoError(t, client.SetLanguage(ctx, 42, "ru"))

		p, err := client.Get(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, "ru", p.Language)
	})

	t.Run("should keep the cache entry when the mutation fails", func(t *testing.T) {
		remote := newFakeRemote()
		remote.profiles[42] = &domain.Profile{ID: 42, Language: "en"}
		client := profile.NewCachedClient(remote, time.Minute)

		_, err := client.Get(ctx, 42)
		require.NoError(t, err)

		remote.err = errors.New("connection refused")
		require.Error(t, client.SetLanguage(ctx, 42, "ru"))

		p, err := client.Get(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, "en", p.Language)
		require.Equal(t, 1, remote.getCalls)
	})
}

func TestCachedClient_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("should refetch after the TTL has passed", func(t *testing.T) {
		remote := newFakeRemote()
		remote.profiles[42] = &domain.Profile{ID: 42}
		client := profile.NewCachedClient(remote, time.Nanosecond)

		_, err := client.Get(ctx, 42)
		require.NoError(t, err)

		time.Sleep(time.Millisecond)
		client.Sweep()

		_, err = client.Get(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, 2, remote.getCalls)
	})
}
