// Package profile provides the client into the remote user-profile
// service and a TTL read-through cache around it. The cache avoids a
// remote round-trip on every message while staying correct across
// mutations by invalidating on every write.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davidbz/waypost/internal/domain"
)

// Client is the HTTP implementation of domain.ProfileService.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new profile service client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("profile service URL is required")
	}

	return &Client{
		baseURL: config.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// Get retrieves a profile by identity, or domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, id int64) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service call failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}

	var profile domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// SetLanguage stores the user's preferred language code.
func (c *Client) SetLanguage(ctx context.Context, id int64, code string) error {
	return c.put(ctx, fmt.Sprintf("%s/users/%d/language", c.baseURL, id),
		map[string]string{"language": code})
}

// SetLocation stores the user's last known location.
func (c *Client) SetLocation(ctx context.Context, id int64, latitude, longitude float64) error {
	return c.put(ctx, fmt.Sprintf("%s/users/%d/location", c.baseURL, id),
		domain.Coordinates{Latitude: latitude, Longitude: longitude})
}

func (c *Client) put(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize profile update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build profile update: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("profile service call failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}
}
