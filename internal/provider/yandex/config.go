package yandex

// Mode selects which Yandex Maps APIs the adapter queries.
type Mode string

const (
	// ModeGeocode queries the HTTP Geocoder only.
	ModeGeocode Mode = "Geocode"

	// ModePlace queries the Places API only.
	ModePlace Mode = "Place"

	// ModeGeoPlace queries the Geocoder first and falls back to the
	// Places API when nothing was found.
	ModeGeoPlace Mode = "GeoPlace"
)

// Config contains Yandex Maps provider configuration.
type Config struct {
	GeocoderAPIKey string `env:"YANDEX_GEOCODER_API_KEY"`
	PlacesAPIKey   string `env:"YANDEX_PLACES_API_KEY"`
	Mode           Mode   `env:"YANDEX_API_MODE"     envDefault:"GeoPlace"`
	Enabled        bool   `env:"YANDEX_ENABLED"      envDefault:"true"`
	GeocoderURL    string `env:"YANDEX_GEOCODER_URL" envDefault:"https://geocode-maps.yandex.ru/1.x"`
	PlacesURL      string `env:"YANDEX_PLACES_URL"   envDefault:"https://search-maps.yandex.ru/v1/"`
	Timeout        int    `env:"YANDEX_TIMEOUT"      envDefault:"10"`
}
