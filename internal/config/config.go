package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/waypost/internal/profile"
	"github.com/davidbz/waypost/internal/provider/google"
	"github.com/davidbz/waypost/internal/provider/osm"
	"github.com/davidbz/waypost/internal/provider/yandex"
)

// Config represents the waypost configuration.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Limiter LimiterConfig
	Google  google.Config
	Yandex  yandex.Config
	OSM     osm.Config
	Profile profile.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RedisConfig contains connection settings for the shared store.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// CacheConfig contains response cache settings. TTL applies to responses
// without usable caching headers of their own.
type CacheConfig struct {
	TTL int `env:"CACHE_TTL" envDefault:"3600"`
}

// LimiterConfig contains rate limiter settings. Timeframe is the rolling
// window length in seconds.
type LimiterConfig struct {
	MaxAllowed int `env:"LIMITER_MAX_ALLOWED" envDefault:"10"`
	Timeframe  int `env:"LIMITER_TIMEFRAME"   envDefault:"60"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*RedisConfig
	*CacheConfig
	*LimiterConfig
	Google  *google.Config
	Yandex  *yandex.Config
	OSM     *osm.Config
	Profile *profile.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Redis,
		&cfg.Cache,
		&cfg.Limiter,
		&cfg.Google,
		&cfg.Yandex,
		&cfg.OSM,
		&cfg.Profile,
	}
}
