package strava

// Activity is the subset of a provider activity summary used to build features.
// StartDate is kept as the provider's ISO-8601 string; lexicographic order of
// well-formed UTC timestamps is chronological order.
type Activity struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	StartDate          string   `json:"start_date"`
	Distance           float64  `json:"distance"`
	MovingTime         int64    `json:"moving_time"`
	Type               string   `json:"type"`
	TotalElevationGain *float64 `json:"total_elevation_gain"`
}

// LatLng is one GPS sample as delivered by the provider: latitude first
type LatLng [2]float64

// Lat returns the latitude
func (p LatLng) Lat() float64 { return p[0] }

// Lon returns the longitude
func (p LatLng) Lon() float64 { return p[1] }

// Streams holds the time-aligned channels of one activity.
// Both slices are empty when the activity has no GPS data.
type Streams struct {
	LatLng []LatLng

	// Time holds offsets in seconds from the activity start, aligned with LatLng
	// when present. It is optional.
	Time []int64
}

// HasGPS reports whether the activity has at least one coordinate
func (s *Streams) HasGPS() bool {
	return s != nil && len(s.LatLng) > 0
}
