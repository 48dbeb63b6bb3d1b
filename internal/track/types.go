package track

import (
	"slices"

	"github.com/paulmach/orb/geojson"

	"github.com/stacklok/strava-track-sync/internal/strava"
)

// Feature property names read by the map front end
const (
	PropIndex         = "i"
	PropStravaID      = "strava_id"
	PropName          = "name"
	PropStartDate     = "start_date"
	PropDistance      = "distance_m"
	PropMovingTime    = "moving_time_s"
	PropType          = "type"
	PropElevationGain = "elevation_gain_m"
	PropPolyline      = "polyline"
)

// Latest is the most recent known position
type Latest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	TS  string  `json:"ts"`
}

// State is the debugging record of which activities produced a feature
type State struct {
	SeenIDs []int64 `json:"seen_ids"`
}

// Track is one GPS-bearing activity together with its samples
type Track struct {
	Activity strava.Activity
	Streams  *strava.Streams
}

// Result is the outcome of building the track from one listing
type Result struct {
	Collection *geojson.FeatureCollection

	// Latest is nil when no activity had GPS data
	Latest *Latest

	// SeenIDs holds the ids of the activities that produced a feature, ascending
	SeenIDs []int64

	// Tracks holds the GPS-bearing activities in start date order
	Tracks []Track

	// Skipped counts activities without GPS data
	Skipped int

	// Failed counts activities whose streams could not be fetched.
	// It is only non-zero when failures are isolated.
	Failed int
}

// State returns the sync state record. SeenIDs is never nil so it encodes as [].
func (r *Result) State() State {
	ids := make([]int64, len(r.SeenIDs))
	copy(ids, r.SeenIDs)
	slices.Sort(ids)
	return State{SeenIDs: ids}
}

// FeatureCount returns the number of features in the collection
func (r *Result) FeatureCount() int {
	if r == nil || r.Collection == nil {
		return 0
	}
	return len(r.Collection.Features)
}
