// Package google provides a geocoder adapter for the Google Maps
// platform. It queries the Geocoding API and the Places Text Search API
// through the shared response cache and maps provider payloads into the
// common location representation.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/davidbz/waypost/internal/cache"
	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/observability"
)

const (
	providerName = "google"

	placesFieldMask = "places.displayName,places.formattedAddress,places.location"

	// The Places API takes a circle radius in meters, capped at 50 km.
	metersPerDegree = 111_320.0
	maxCircleMeters = 50_000.0
)

// Provider implements the domain.Geocoder interface for Google Maps.
type Provider struct {
	client *http.Client
	config Config
}

// NewProvider creates a new Google Maps provider.
func NewProvider(config Config, transport *cache.Transport) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Google Maps API key is required")
	}
	if config.Mode != ModeText && config.Mode != ModeGeoText {
		return nil, fmt.Errorf("invalid Google API mode: %q", config.Mode)
	}

	return &Provider{
		client: transport.Client(time.Duration(config.Timeout) * time.Second),
		config: config,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// Find resolves a query according to the configured API mode.
func (p *Provider) Find(ctx context.Context, query string, params domain.SearchParams) ([]domain.Location, error) {
	ctx = observability.WithProvider(ctx, providerName)

	if p.config.Mode == ModeText {
		return p.findText(ctx, query, params)
	}

	// Geocode first, free-text search as fallback.
	results, err := p.findGeo(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		results, err = p.findText(ctx, query, params)
	}
	return results, err
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (p *Provider) findGeo(ctx context.Context, query string, params domain.SearchParams) ([]domain.Location, error) {
	observability.ProviderRequestsTotal.WithLabelValues(providerName, "geocode").Inc()

	values := url.Values{}
	values.Set("key", p.config.APIKey)
	values.Set("address", query)
	values.Set("language", params.LangCode)
	values.Set("region", params.LangCode)
	if bottomLeft, topRight, ok := params.Bounds(p.config.SearchRadius); ok {
		values.Set("bounds", fmt.Sprintf("%f,%f|%f,%f",
			bottomLeft.Latitude, bottomLeft.Longitude,
			topRight.Latitude, topRight.Longitude))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.GeocodeBaseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	var payload geocodeResponse
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}

	locations := make([]domain.Location, 0, len(payload.Results))
	for _, result := range payload.Results {
		loc := result.Geometry.Location
		if result.FormattedAddress == "" || loc == nil || loc.Lat == nil || loc.Lng == nil {
			continue
		}
		locations = append(locations, domain.Location{
			Address:   result.FormattedAddress,
			Latitude:  *loc.Lat,
			Longitude: *loc.Lng,
		})
	}
	return locations, nil
}

type textSearchRequest struct {
	TextQuery    string `json:"textQuery"`
	LanguageCode string `json:"languageCode"`
	LocationBias *struct {
		Circle circleBias `json:"circle"`
	} `json:"locationBias,omitempty"`
}

type circleBias struct {
	Center struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"center"`
	Radius float64 `json:"radius"`
}

type textSearchResponse struct {
	Places []struct {
		DisplayName *struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		Location         *struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"location"`
	} `json:"places"`
}

func (p *Provider) findText(ctx context.Context, query string, params domain.SearchParams) ([]domain.Location, error) {
	observability.ProviderRequestsTotal.WithLabelValues(providerName, "place-text").Inc()

	search := textSearchRequest{
		TextQuery:    query,
		LanguageCode: params.LangCode,
	}
	if params.Bias != nil {
		circle := circleBias{
			Radius: min(p.config.SearchRadius*metersPerDegree, maxCircleMeters),
		}
		circle.Center.Latitude = params.Bias.Latitude
		circle.Center.Longitude = params.Bias.Longitude
		search.LocationBias = &struct {
			Circle circleBias `json:"circle"`
		}{Circle: circle}
	}

	body, err := json.Marshal(search)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize text search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.PlacesBaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build text search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", p.config.APIKey)
	req.Header.Set("X-Goog-FieldMask", placesFieldMask)
	// Distinct payloads to the same endpoint must not collide in the cache.
	req.Header.Set(cache.HeaderBodyHash, cache.HashBody(body))

	var payload textSearchResponse
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}

	locations := make([]domain.Location, 0, len(payload.Places))
	for _, place := range payload.Places {
		if place.DisplayName == nil || place.FormattedAddress == "" ||
			place.Location == nil || place.Location.Latitude == nil || place.Location.Longitude == nil {
			continue
		}
		locations = append(locations, domain.Location{
			Address:   fmt.Sprintf("%s, %s", place.DisplayName.Text, place.FormattedAddress),
			Latitude:  *place.Location.Latitude,
			Longitude: *place.Location.Longitude,
		})
	}
	return locations, nil
}

func (p *Provider) do(req *http.Request, payload any) error {
	logger := observability.FromContext(req.Context())

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("Google Maps API call failed: %w", err)
	}
	defer resp.Body.Close()

	observability.ProviderResponsesTotal.WithLabelValues(providerName, cache.Source(resp)).Inc()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Google Maps API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return fmt.Errorf("failed to decode Google Maps response: %w", err)
	}

	logger.Debug("Google Maps API call succeeded",
		observability.String("source", cache.Source(resp)))
	return nil
}
