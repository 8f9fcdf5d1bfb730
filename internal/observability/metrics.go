package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ResolveRequestsTotal counts calls to the resolve entry point.
	ResolveRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waypost_resolve_requests_total",
		Help: "Total number of location resolution requests",
	})

	// ResolveEmptyTotal counts resolutions that found no location.
	ResolveEmptyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waypost_resolve_empty_total",
		Help: "Total number of resolutions that returned no locations",
	})

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waypost_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	// ProviderRequestsTotal counts outbound requests per provider API.
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "waypost_provider_requests_total",
		Help: "Count of requests to geocoding provider APIs",
	}, []string{"provider", "api"})

	// ProviderResponsesTotal counts provider responses split by their source.
	ProviderResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "waypost_provider_responses_total",
		Help: "Count of responses from geocoding provider APIs split by source (cache or remote)",
	}, []string{"provider", "source"})
)

func init() {
	prometheus.MustRegister(ResolveRequestsTotal)
	prometheus.MustRegister(ResolveEmptyTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderResponsesTotal)
}
