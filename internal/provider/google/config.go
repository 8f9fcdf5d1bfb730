package google

// Mode selects which Google Maps APIs the adapter queries.
type Mode string

const (
	// ModeText queries the Places Text Search API only.
	ModeText Mode = "Text"

	// ModeGeoText queries the Geocoding API first and falls back to the
	// Places Text Search API when it returns nothing.
	ModeGeoText Mode = "GeoText"
)

// Config contains Google Maps provider configuration.
type Config struct {
	APIKey         string  `env:"GOOGLE_MAPS_API_KEY"`
	Mode           Mode    `env:"GOOGLE_API_MODE"      envDefault:"GeoText"`
	Enabled        bool    `env:"GOOGLE_ENABLED"       envDefault:"true"`
	GeocodeBaseURL string  `env:"GOOGLE_GEOCODE_URL"   envDefault:"https://maps.googleapis.com/maps/api/geocode/json"`
	PlacesBaseURL  string  `env:"GOOGLE_PLACES_URL"    envDefault:"https://places.googleapis.com/v1/places:searchText"`
	Timeout        int     `env:"GOOGLE_TIMEOUT"       envDefault:"10"`
	SearchRadius   float64 `env:"SEARCH_RADIUS"        envDefault:"0.1"`
}
