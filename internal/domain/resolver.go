package domain

import (
	"context"
	"regexp"
	"strconv"

	"github.com/davidbz/waypost/internal/observability"
)

// coordsPattern matches a raw latitude/longitude pair such as
// "51.5074 -0.1278" or "51.5074, -0.1278".
var coordsPattern = regexp.MustCompile(`(?P<latitude>-?\d{1,2}(\.\d+)?),? (?P<longitude>-?\d{1,3}(\.\d+)?)`)

// Resolver is the inbound entry point of the resolution core. It applies
// the coordinate short-circuit before delegating to the search chain.
type Resolver struct {
	chain *SearchChain
}

// NewResolver creates a new resolver (DI constructor).
func NewResolver(chain *SearchChain) *Resolver {
	return &Resolver{
		chain: chain,
	}
}

// Resolve answers a free-text or coordinate query with locations. A query
// matching the coordinate-pair pattern is returned as a single
// synthesized address-less location without consulting any provider.
func (r *Resolver) Resolve(ctx context.Context, query, langCode string, bias *Coordinates) []Location {
	observability.ResolveRequestsTotal.Inc()

	if loc, ok := parseCoords(query); ok {
		return []Location{loc}
	}

	params := SearchParams{
		LangCode: langCode,
		Bias:     bias,
	}

	locations := r.chain.Find(ctx, query, params)
	if len(locations) == 0 {
		observability.ResolveEmptyTotal.Inc()
	}
	return locations
}

func parseCoords(query string) (Location, bool) {
	match := coordsPattern.FindStringSubmatch(query)
	if match == nil {
		return Location{}, false
	}

	latitude, err := strconv.ParseFloat(match[coordsPattern.SubexpIndex("latitude")], 64)
	if err != nil {
		return Location{}, false
	}
	longitude, err := strconv.ParseFloat(match[coordsPattern.SubexpIndex("longitude")], 64)
	if err != nil {
		return Location{}, false
	}

	return NewLocation(latitude, longitude), true
}
