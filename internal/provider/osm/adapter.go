// Package osm provides a geocoder adapter for the OpenStreetMap
// Nominatim API, the free provider consulted before any metered one.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/davidbz/waypost/internal/cache"
	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/observability"
)

const providerName = "osm"

// Provider implements the domain.Geocoder interface for Nominatim.
type Provider struct {
	client *http.Client
	config Config
}

// NewProvider creates a new Nominatim provider.
func NewProvider(config Config, transport *cache.Transport) *Provider {
	return &Provider{
		client: transport.Client(time.Duration(config.Timeout) * time.Second),
		config: config,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// searchResult is one Nominatim element; coordinates come as strings.
type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Find resolves a query via a single Nominatim search request.
func (p *Provider) Find(ctx context.Context, query string, params domain.SearchParams) ([]domain.Location, error) {
	ctx = observability.WithProvider(ctx, providerName)
	observability.ProviderRequestsTotal.WithLabelValues(providerName, "search").Inc()

	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	if bottomLeft, topRight, ok := params.Bounds(p.config.SearchRadius); ok {
		// Nominatim viewbox order: lon1,lat1,lon2,lat2.
		values.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
			bottomLeft.Longitude, bottomLeft.Latitude,
			topRight.Longitude, topRight.Latitude))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)
	req.Header.Set("Accept-Language", params.LangCode)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Nominatim API call failed: %w", err)
	}
	defer resp.Body.Close()

	observability.ProviderResponsesTotal.WithLabelValues(providerName, cache.Source(resp)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Nominatim API returned status %d", resp.StatusCode)
	}

	var payload []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode Nominatim response: %w", err)
	}

	locations := make([]domain.Location, 0, len(payload))
	for _, result := range payload {
		if result.DisplayName == "" {
			continue
		}
		latitude, latErr := strconv.ParseFloat(result.Lat, 64)
		longitude, lonErr := strconv.ParseFloat(result.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		locations = append(locations, domain.Location{
			Address:   result.DisplayName,
			Latitude:  latitude,
			Longitude: longitude,
		})
	}
	return locations, nil
}
