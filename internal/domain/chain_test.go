package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/waypost/internal/domain"
)

// fakeGeocoder is a scripted geocoder for chain tests.
type fakeGeocoder struct {
	name      string
	locations []domain.Location
	err       error
	calls     int
}

func (f *fakeGeocoder) Find(_ context.Context, _ string, _ domain.SearchParams) ([]domain.Location, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.locations, nil
}

func (f *fakeGeocoder) Name() string {
	return f.name
}

func TestSearchChain_Find(t *testing.T) {
	paris := domain.Location{Address: "Champ de Mars, Paris", Latitude: 48.8584, Longitude: 2.2945}

	t.Run("should return the first non-empty result", func(t *testing.T) {
		empty := &fakeGeocoder{name: "empty"}
		full := &fakeGeocoder{name: "full", locations: []domain.Location{paris}}

		chain := domain.NewSearchChain(domain.Enabled(empty), domain.Enabled(full))

		results := chain.Find(context.Background(), "Eiffel Tower", domain.SearchParams{LangCode: "en"})

		require.Equal(t, []domain.Location{paris}, results)
		require.Equal(t, 1, empty.calls)
		require.Equal(t, 1, full.calls)
	})

	t.Run("should not invoke later providers once a result is found", func(t *testing.T) {
		first := &fakeGeocoder{name: "first", locations: []domain.Location{paris}}
		second := &fakeGeocoder{name: "second", locations: []domain.Location{paris}}

		chain := domain.NewSearchChain(domain.Enabled(first), domain.Enabled(second))

		chain.Find(context.Background(), "Eiffel Tower", domain.SearchParams{LangCode: "en"})

		require.Equal(t, 1, first.calls)
		require.Equal(t, 0, second.calls)
	})

	t.Run("should treat provider errors as try-next", func(t *testing.T) {
		broken := &fakeGeocoder{name: "broken", err: errors.New("remote unreachable")}
		full := &fakeGeocoder{name: "full", locations: []domain.Location{paris}}

		chain := domain.NewSearchChain(domain.Enabled(broken), domain.Enabled(full))

		results := chain.Find(context.Background(), "Eiffel Tower", domain.SearchParams{LangCode: "en"})

		require.Equal(t, []domain.Location{paris}, results)
	})

	t.Run("should return an empty list when every provider is exhausted", func(t *testing.T) {
		broken := &fakeGeocoder{name: "broken", err: errors.New("remote unreachable")}
		empty := &fakeGeocoder{name: "empty"}

		chain := domain.NewSearchChain(domain.Enabled(broken), domain.Enabled(empty))

		results := chain.Find(context.Background(), "nowhere", domain.SearchParams{LangCode: "en"})

		require.NotNil(t, results)
		require.Empty(t, results)
	})

	t.Run("should use the locale override order exclusively", func(t *testing.T) {
		global := &fakeGeocoder{name: "global", locations: []domain.Location{paris}}
		regional := &fakeGeocoder{name: "regional", locations: []domain.Location{{Address: "Красная площадь", Latitude: 55.7539, Longitude: 37.6208}}}

		chain := domain.NewSearchChain(domain.Enabled(global)).
			ForLangCode("ru", domain.Enabled(regional))

		results := chain.Find(context.Background(), "Красная площадь", domain.SearchParams{LangCode: "ru"})

		require.Equal(t, 1, regional.calls)
		require.Equal(t, 0, global.calls)
		require.Len(t, results, 1)
	})

	t.Run("should fall back to the global order for unregistered locales", func(t *testing.T) {
		global := &fakeGeocoder{name: "global", locations: []domain.Location{paris}}
		regional := &fakeGeocoder{name: "regional"}

		chain := domain.NewSearchChain(domain.Enabled(global)).
			ForLangCode("ru", domain.Enabled(regional))

		chain.Find(context.Background(), "Eiffel Tower", domain.SearchParams{LangCode: "fr"})

		require.Equal(t, 1, global.calls)
		require.Equal(t, 0, regional.calls)
	})

	t.Run("should drop disabled providers at construction time", func(t *testing.T) {
		disabled := &fakeGeocoder{name: "disabled", locations: []domain.Location{paris}}
		enabled := &fakeGeocoder{name: "enabled", locations: []domain.Location{paris}}

		chain := domain.NewSearchChain(
			domain.ChainEntry{Geocoder: disabled, Enabled: false},
			domain.Enabled(enabled),
		).ForLangCode("ru", domain.ChainEntry{Geocoder: disabled, Enabled: false})

		chain.Find(context.Background(), "Eiffel Tower", domain.SearchParams{LangCode: "en"})
		results := chain.Find(context.Background(), "Красная площадь", domain.SearchParams{LangCode: "ru"})

		require.Equal(t, 0, disabled.calls)
		require.Equal(t, 1, enabled.calls)
		require.Empty(t, results)
	})
}
