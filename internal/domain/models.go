package domain

// Location is a single resolved geographic location. Immutable once
// constructed; it lives for the duration of one request.
type Location struct {
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocation creates an address-less location from raw coordinates.
func NewLocation(latitude, longitude float64) Location {
	return Location{
		Latitude:  latitude,
		Longitude: longitude,
	}
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchParams carries per-query search hints. Passed by value through
// the chain; never mutated.
type SearchParams struct {
	LangCode string
	// Bias, when set, biases provider results toward the given point.
	Bias *Coordinates
}

// Bounds returns the bottom-left and top-right corners of a square
// viewport of the given radius (in degrees) around the bias point.
// ok is false when no bias is set.
func (p SearchParams) Bounds(radius float64) (bottomLeft, topRight Coordinates, ok bool) {
	if p.Bias == nil {
		return Coordinates{}, Coordinates{}, false
	}
	bottomLeft = Coordinates{
		Latitude:  p.Bias.Latitude - radius,
		Longitude: p.Bias.Longitude - radius,
	}
	topRight = Coordinates{
		Latitude:  p.Bias.Latitude + radius,
		Longitude: p.Bias.Longitude + radius,
	}
	return bottomLeft, topRight, true
}

// Profile is a user profile as stored by the remote user-profile service.
type Profile struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name,omitempty"`
	Language string       `json:"language,omitempty"`
	Location *Coordinates `json:"location,omitempty"`
}
