package track_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/stacklok/strava-track-sync/internal/strava"
	"github.com/stacklok/strava-track-sync/internal/track"
)

func TestEncodeGPX(t *testing.T) {
	t.Parallel()

	tracks := []track.Track{
		{
			Activity: strava.Activity{ID: 1, Name: "Lunch Run", Type: "Run", StartDate: "2024-01-01T12:00:00Z"},
			Streams: &strava.Streams{
				LatLng: []strava.LatLng{{47.1, 8.5}, {47.2, 8.6}},
				Time:   []int64{0, 30},
			},
		},
		{
			Activity: strava.Activity{ID: 2, Name: "No times", StartDate: "2024-01-02T12:00:00Z"},
			Streams:  &strava.Streams{LatLng: []strava.LatLng{{1, 2}}},
		},
	}

	data, err := track.EncodeGPX(tracks)
	require.NoError(t, err)

	doc, err := gpx.ParseBytes(data)
	require.NoError(t, err)
	require.Len(t, doc.Tracks, 2)

	run := doc.Tracks[0]
	assert.Equal(t, "Lunch Run", run.Name)
	require.Len(t, run.Segments, 1)
	require.Len(t, run.Segments[0].Points, 2)

	p := run.Segments[0].Points[1]
	assert.InDelta(t, 47.2, p.Latitude, 1e-9)
	assert.InDelta(t, 8.6, p.Longitude, 1e-9)
	assert.True(t, time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC).Equal(p.Timestamp))

	assert.True(t, doc.Tracks[1].Segments[0].Points[0].Timestamp.IsZero())
}

func TestEncodeGPX_Empty(t *testing.T) {
	t.Parallel()

	data, err := track.EncodeGPX(nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<gpx")
}
