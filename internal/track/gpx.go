package track

import (
	"fmt"
	"time"

	"github.com/tkrajina/gpxgo/gpx"
)

const gpxCreator = "strava-track-sync"

// EncodeGPX renders the tracks as a GPX 1.1 document, one <trk> per activity.
// Point timestamps are the activity start plus the time stream offset and are
// omitted when either is unavailable.
func EncodeGPX(tracks []Track) ([]byte, error) {
	doc := &gpx.GPX{
		Version: "1.1",
		Creator: gpxCreator,
		Tracks:  make([]gpx.GPXTrack, 0, len(tracks)),
	}

	for _, t := range tracks {
		start, err := time.Parse(time.RFC3339, t.Activity.StartDate)
		hasStart := err == nil

		segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(t.Streams.LatLng))}
		for i, p := range t.Streams.LatLng {
			point := gpx.GPXPoint{
				Point: gpx.Point{Latitude: p.Lat(), Longitude: p.Lon()},
			}
			if hasStart && i < len(t.Streams.Time) {
				point.Timestamp = start.Add(time.Duration(t.Streams.Time[i]) * time.Second).UTC()
			}
			segment.Points = append(segment.Points, point)
		}

		doc.Tracks = append(doc.Tracks, gpx.GPXTrack{
			Name:     t.Activity.Name,
			Type:     t.Activity.Type,
			Segments: []gpx.GPXTrackSegment{segment},
		})
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GPX: %w", err)
	}
	return data, nil
}
