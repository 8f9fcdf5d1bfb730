package google_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/waypost/internal/cache"
	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/provider/google"
)

type nullStore struct{}

func (nullStore) Get(context.Context, string) ([]byte, error) { return nil, domain.ErrCacheMiss }
func (nullStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
func (nullStore) Del(context.Context, string) error { return nil }
func (nullStore) IncrExpire(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("not implemented")
}

func newProvider(t *testing.T, cfg google.Config) *google.Provider {
	t.Helper()
	cfg.Timeout = 5
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	provider, err := google.NewProvider(cfg, cache.NewTransport(nullStore{}, 0))
	require.NoError(t, err)
	return provider
}

func TestNewProvider(t *testing.T) {
	t.Run("should require an API key", func(t *testing.T) {
		_, err := google.NewProvider(google.Config{Mode: google.ModeGeoText}, cache.NewTransport(nullStore{}, 0))
		require.Error(t, err)
	})

	t.Run("should reject an unknown mode", func(t *testing.T) {
		_, err := google.NewProvider(google.Config{APIKey: "k", Mode: "Place"}, cache.NewTransport(nullStore{}, 0))
		require.Error(t, err)
	})
}

func TestProvider_Find(t *testing.T) {
	geocodePayload := `{
		"results": [
			{
				"formatted_address": "Westminster, London",
				"geometry": {"location": {"lat": 51.5007, "lng": -0.1246}}
			},
			{
				"geometry": {"location": {"lat": 1.0, "lng": 2.0}}
			},
			{
				"formatted_address": "missing geometry"
			}
		]
	}`

	t.Run("should parse geocode results and drop malformed elements", func(t *testing.T) {
		var gotLang, gotRegion string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLang = r.URL.Query().Get("language")
			gotRegion = r.URL.Query().Get("region")
			_, _ = w.Write([]byte(geocodePayload))
		}))
		defer server.Close()

		provider := newProvider(t, google.Config{
			Mode:           google.ModeGeoText,
			GeocodeBaseURL: server.URL,
			PlacesBaseURL:  server.URL,
		})

		locations, err := provider.Find(context.Background(), "Big Ben", domain.SearchParams{LangCode: "en"})

		require.NoError(t, err)
		require.Len(t, locations, 1)
		require.Equal(t, "Westminster, London", locations[0].Address)
		require.Equal(t, "en", gotLang)
		require.Equal(t, "en", gotRegion)
	})

	t.Run("should fall back to text search when geocoding finds nothing", func(t *testing.T) {
		mux := http.NewServeMux()
		var fieldMask string
		var textQuery struct {
			TextQuery    string `json:"textQuery"`
			LanguageCode string `json:"languageCode"`
		}
		mux.HandleFunc("/geocode", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"results": []}`))
		})
		mux.HandleFunc("/places", func(w http.ResponseWriter, r *http.Request) {
			fieldMask = r.Header.Get("X-Goog-FieldMask")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &textQuery)
			_, _ = w.Write([]byte(`{
				"places": [
					{
						"displayName": {"text": "Eiffel Tower"},
						"formattedAddress": "Champ de Mars, Paris",
						"location": {"latitude": 48.8584, "longitude": 2.2945}
					}
				]
			}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		provider := newProvider(t, google.Config{
			Mode:           google.ModeGeoText,
			GeocodeBaseURL: server.URL + "/geocode",
			PlacesBaseURL:  server.URL + "/places",
		})

		locations, err := provider.Find(context.Background(), "Eiffel Tower", domain.SearchParams{LangCode: "fr"})

		require.NoError(t, err)
		require.Len(t, locations, 1)
		require.Equal(t, "Eiffel Tower, Champ de Mars, Paris", locations[0].Address)
		require.NotEmpty(t, fieldMask)
		require.Equal(t, "Eiffel Tower", textQuery.TextQuery)
		require.Equal(t, "fr", textQuery.LanguageCode)
	})

	t.Run("should skip geocoding entirely in text mode", func(t *testing.T) {
		var geocodeCalled bool
		mux := http.NewServeMux()
		mux.HandleFunc("/geocode", func(w http.ResponseWriter, _ *http.Request) {
			geocodeCalled = true
			_, _ = w.Write([]byte(`{"results": []}`))
		})
		mux.HandleFunc("/places", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"places": []}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		provider := newProvider(t, google.Config{
			Mode:           google.ModeText,
			GeocodeBaseURL: server.URL + "/geocode",
			PlacesBaseURL:  server.URL + "/places",
		})

		locations, err := provider.Find(context.Background(), "Eiffel Tower", domain.SearchParams{LangCode: "en"})

		require.NoError(t, err)
		require.Empty(t, locations)
		require.False(t, geocodeCalled)
	})

	t.Run("should bias geocoding with bounds", func(t *testing.T) {
		var gotBounds string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				gotBounds = r.URL.Query().Get("bounds")
			}
			_, _ = w.Write([]byte(`{"results": []}`))
		}))
		defer server.Close()

		provider := newProvider(t, google.Config{
			Mode:           google.ModeGeoText,
			GeocodeBaseURL: server.URL,
			PlacesBaseURL:  server.URL,
			SearchRadius:   0.5,
		})

		// The places fallback runs too; only the bounds matter here.
		_, err := provider.Find(context.Background(), "cafe", domain.SearchParams{
			LangCode: "en",
			Bias:     &domain.Coordinates{Latitude: 51.5, Longitude: -0.1},
		})

		require.NoError(t, err)
		require.Equal(t, "51.000000,-0.600000|52.000000,0.400000", gotBounds)
	})

	t.Run("should propagate HTTP errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		provider := newProvider(t, google.Config{
			Mode:           google.ModeGeoText,
			GeocodeBaseURL: server.URL,
			PlacesBaseURL:  server.URL,
		})

		_, err := provider.Find(context.Background(), "anything", domain.SearchParams{LangCode: "en"})

		require.Error(t, err)
	})
}
