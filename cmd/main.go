package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/dig"

	"github.com/davidbz/waypost/internal/cache"
	redisstore "github.com/davidbz/waypost/internal/cache/redis"
	"github.com/davidbz/waypost/internal/config"
	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/http"
	"github.com/davidbz/waypost/internal/http/middleware"
	"github.com/davidbz/waypost/internal/observability"
	"github.com/davidbz/waypost/internal/profile"
	"github.com/davidbz/waypost/internal/provider/google"
	"github.com/davidbz/waypost/internal/provider/osm"
	"github.com/davidbz/waypost/internal/provider/yandex"
	"github.com/davidbz/waypost/internal/ratelimit"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server, profiles *profile.CachedClient, cfg *profile.Config) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if profiles != nil {
			profiles.StartJanitor(ctx, time.Duration(cfg.SweepInterval)*time.Second)
		}

		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Shared store (Redis)
	if err := container.Provide(func(cfg *config.RedisConfig) domain.Store {
		return redisstore.NewStore(redisstore.NewClient(cfg.Addr, cfg.Password, cfg.DB))
	}); err != nil {
		log.Fatalf("Failed to provide store: %v", err)
	}

	// Response cache transport
	if err := container.Provide(func(store domain.Store, cfg *config.CacheConfig) *cache.Transport {
		return cache.NewTransport(store, time.Duration(cfg.TTL)*time.Second)
	}); err != nil {
		log.Fatalf("Failed to provide cache transport: %v", err)
	}

	// Rate limiter
	if err := container.Provide(func(store domain.Store, cfg *config.LimiterConfig) domain.RequestGate {
		return ratelimit.NewLimiter(store, cfg.MaxAllowed, time.Duration(cfg.Timeframe)*time.Second)
	}); err != nil {
		log.Fatalf("Failed to provide rate limiter: %v", err)
	}

	// Geocoding providers; a disabled or unconfigured provider yields nil
	// and is dropped from the chain.
	if err := container.Provide(func(cfg *google.Config, transport *cache.Transport) (*google.Provider, error) {
		if !cfg.Enabled || cfg.APIKey == "" {
			return nil, nil
		}
		return google.NewProvider(*cfg, transport)
	}); err != nil {
		log.Fatalf("Failed to provide Google provider: %v", err)
	}
	if err := container.Provide(func(cfg *yandex.Config, transport *cache.Transport) (*yandex.Provider, error) {
		if !cfg.Enabled || cfg.GeocoderAPIKey == "" {
			return nil, nil
		}
		return yandex.NewProvider(*cfg, transport)
	}); err != nil {
		log.Fatalf("Failed to provide Yandex provider: %v", err)
	}
	if err := container.Provide(func(cfg *osm.Config, transport *cache.Transport) *osm.Provider {
		if !cfg.Enabled {
			return nil
		}
		return osm.NewProvider(*cfg, transport)
	}); err != nil {
		log.Fatalf("Failed to provide OSM provider: %v", err)
	}

	// Search chain: the free provider before the metered one; Yandex
	// serves the RU locale exclusively.
	if err := container.Provide(func(
		osmProvider *osm.Provider,
		googleProvider *google.Provider,
		yandexProvider *yandex.Provider,
	) *domain.SearchChain {
		var global []domain.ChainEntry
		if osmProvider != nil {
			global = append(global, domain.Enabled(osmProvider))
		}
		if googleProvider != nil {
			global = append(global, domain.Enabled(googleProvider))
		}

		chain := domain.NewSearchChain(global...)
		if yandexProvider != nil {
			chain.ForLangCode("ru", domain.Enabled(yandexProvider))
		}
		return chain
	}); err != nil {
		log.Fatalf("Failed to provide search chain: %v", err)
	}

	// Domain services
	if err := container.Provide(domain.NewResolver); err != nil {
		log.Fatalf("Failed to provide resolver: %v", err)
	}

	// Profile cache client (optional)
	if err := container.Provide(func(cfg *profile.Config) (*profile.CachedClient, error) {
		if cfg.BaseURL == "" {
			return nil, nil
		}
		remote, err := profile.NewClient(*cfg)
		if err != nil {
			return nil, err
		}
		return profile.NewCachedClient(remote, time.Duration(cfg.CacheTTL)*time.Second), nil
	}); err != nil {
		log.Fatalf("Failed to provide profile client: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(corsCfg *config.CORSConfig, gate domain.RequestGate) middleware.Middleware {
		return middleware.BuildMiddlewareChain(corsCfg, gate)
	}); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
