package domain

import (
	"context"

	"github.com/davidbz/waypost/internal/observability"
)

// ChainEntry pairs a geocoder with its configuration-driven enablement
// flag. Disabled entries are dropped at construction time and never
// invoked.
type ChainEntry struct {
	Geocoder Geocoder
	Enabled  bool
}

// Enabled wraps a geocoder in an always-enabled chain entry.
func Enabled(g Geocoder) ChainEntry {
	return ChainEntry{Geocoder: g, Enabled: true}
}

// SearchChain resolves a query against an ordered list of geocoders with
// a first-success-wins fallback policy. The order encodes a cost/quality
// preference and is deterministic; locale-specific override orders take
// precedence over the global one. Built once at startup and immutable
// thereafter.
type SearchChain struct {
	global   []Geocoder
	regional map[string][]Geocoder
}

// NewSearchChain creates a chain from the ordered global entries.
func NewSearchChain(entries ...ChainEntry) *SearchChain {
	return &SearchChain{
		global:   filterEnabled(entries),
		regional: make(map[string][]Geocoder),
	}
}

// ForLangCode registers an ordered override list for a locale. Queries in
// that locale use the override order exclusively.
func (c *SearchChain) ForLangCode(langCode string, entries ...ChainEntry) *SearchChain {
	c.regional[langCode] = append(c.regional[langCode], filterEnabled(entries)...)
	return c
}

// Find invokes the geocoders in order, one at a time. The first non-empty
// result set wins; empty results and errors both fall through to the next
// provider, errors with a log line. An exhausted chain returns an empty
// slice, which is a valid "no location found" outcome rather than an
// error.
func (c *SearchChain) Find(ctx context.Context, query string, params SearchParams) []Location {
	finders, ok := c.regional[params.LangCode]
	if !ok {
		finders = c.global
	}

	logger := observability.FromContext(ctx)

	for _, finder := range finders {
		locations, err := finder.Find(ctx, query, params)
		if err != nil {
			logger.Error("couldn't fetch location data",
				observability.String("provider", finder.Name()),
				observability.Error(err))
			continue
		}
		if len(locations) > 0 {
			return locations
		}
	}

	return []Location{}
}

func filterEnabled(entries []ChainEntry) []Geocoder {
	finders := make([]Geocoder, 0, len(entries))
	for _, entry := range entries {
		if entry.Enabled && entry.Geocoder != nil {
			finders = append(finders, entry.Geocoder)
		}
	}
	return finders
}
