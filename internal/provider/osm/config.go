package osm

// Config contains OpenStreetMap Nominatim provider configuration.
// Nominatim requires a meaningful User-Agent from API consumers.
type Config struct {
	Enabled      bool    `env:"OSM_ENABLED"    envDefault:"true"`
	BaseURL      string  `env:"OSM_BASE_URL"   envDefault:"https://nominatim.openstreetmap.org/search"`
	UserAgent    string  `env:"OSM_USER_AGENT" envDefault:"waypost"`
	Timeout      int     `env:"OSM_TIMEOUT"    envDefault:"10"`
	SearchRadius float64 `env:"SEARCH_RADIUS"  envDefault:"0.1"`
}
