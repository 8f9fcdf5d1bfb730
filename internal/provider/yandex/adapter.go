// Package yandex provides a geocoder adapter for Yandex Maps, used in
// the RU-locale chain. It queries the HTTP Geocoder and the Places API
// through the shared response cache.
package yandex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/davidbz/waypost/internal/cache"
	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/observability"
)

const providerName = "yandex"

// Provider implements the domain.Geocoder interface for Yandex Maps.
type Provider struct {
	client *http.Client
	config Config
}

// NewProvider creates a new Yandex Maps provider.
func NewProvider(config Config, transport *cache.Transport) (*Provider, error) {
	if config.GeocoderAPIKey == "" {
		return nil, errors.New("Yandex Maps Geocoder API key is required")
	}
	switch config.Mode {
	case ModeGeocode:
	case ModePlace, ModeGeoPlace:
		if config.PlacesAPIKey == "" {
			return nil, errors.New("Yandex Maps Places API key is required")
		}
	default:
		return nil, fmt.Errorf("invalid Yandex API mode: %q", config.Mode)
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

	switch p.config.Mode {
	case ModeGeocode:
		return p.findGeo(ctx, query, params)
	case ModePlace:
		return p.findPlace(ctx, query, params)
	default:
		results, err := p.findGeo(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			results, err = p.findPlace(ctx, query, params)
		}
		return results, err
	}
}

type geocoderResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					MetaDataProperty struct {
						GeocoderMetaData struct {
							Text string `json:"text"`
						} `json:"GeocoderMetaData"`
					} `json:"metaDataProperty"`
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

func (p *Provider) findGeo(ctx context.Context, query string, params domain.SearchParams) ([]domain.Location, error) {
	observability.ProviderRequestsTotal.WithLabelValues(providerName, "geocode").Inc()

	values := url.Values{}
	values.Set("apikey", p.config.GeocoderAPIKey)
	values.Set("lang", params.LangCode)
	values.Set("geocode", query)
	values.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.GeocoderURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoder request: %w", err)
	}

	var payload geocoderResponse
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	members := payload.Response.GeoObjectCollection.FeatureMember
	locations := make([]domain.Location, 0, len(members))
	for _, member := range members {
		address := member.GeoObject.MetaDataProperty.GeocoderMetaData.Text
		// The Geocoder encodes the point as a "longitude latitude" string.
		pos := strings.Fields(member.GeoObject.Point.Pos)
		if address == "" || len(pos) < 2 {
			logger.Warn("dropping malformed geocoder element",
				observability.String("pos", member.GeoObject.Point.Pos))
			continue
		}
		longitude, lonErr := strconv.ParseFloat(pos[0], 64)
		latitude, latErr := strconv.ParseFloat(pos[1], 64)
		if lonErr != nil || latErr != nil {
			continue
		}
		locations = append(locations, domain.Location{
			Address:   address,
			Latitude:  latitude,
			Longitude: longitude,
		})
	}
	return locations, nil
}

type placesResponse struct {
	Features []struct {
		Properties struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"properties"`
		Geometry struct {
			// GeoJSON order: longitude first.
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (p *Provider) findPlace(ctx context.Context, query string, params domain.SearchParams) ([]domain.Location, error) {
	observability.ProviderRequestsTotal.WithLabelValues(providerName, "place").Inc()

	values := url.Values{}
	values.Set("apikey", p.config.PlacesAPIKey)
	values.Set("lang", params.LangCode)
	values.Set("text", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.PlacesURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}

	var payload placesResponse
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}

	locations := make([]domain.Location, 0, len(payload.Features))
	for _, feature := range payload.Features {
		props := feature.Properties
		coords := feature.Geometry.Coordinates
		if props.Name == "" || props.Description == "" || len(coords) < 2 {
			continue
		}
		locations = append(locations, domain.Location{
			Address:   fmt.Sprintf("%s, %s", props.Name, props.Description),
			Latitude:  coords[1],
			Longitude: coords[0],
		})
	}
	return locations, nil
}

func (p *Provider) do(req *http.Request, payload any) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("Yandex Maps API call failed: %w", err)
	}
	defer resp.Body.Close()

	observability.ProviderResponsesTotal.WithLabelValues(providerName, cache.Source(resp)).Inc()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Yandex Maps API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return fmt.Errorf("failed to decode Yandex Maps response: %w", err)
	}
	return nil
}
