package track

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/strava-track-sync/internal/otel"
	"github.com/stacklok/strava-track-sync/internal/strava"
)

// Builder fetches the streams of each activity and assembles the feature collection
type Builder struct {
	client          strava.Client
	isolateFailures bool
	encodedPolyline bool
	tracer          trace.Tracer
}

// Option configures a Builder
type Option func(*Builder)

// WithIsolatedFailures makes a failed stream fetch skip the activity instead of
// failing the build
func WithIsolatedFailures(isolate bool) Option {
	return func(b *Builder) {
		b.isolateFailures = isolate
	}
}

// WithEncodedPolyline adds the encoded polyline of the track as a feature property
func WithEncodedPolyline(enabled bool) Option {
	return func(b *Builder) {
		b.encodedPolyline = enabled
	}
}

// WithTracer records a span for the build
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Builder) {
		b.tracer = tracer
	}
}

// NewBuilder creates a Builder reading streams through client
func NewBuilder(client strava.Client, opts ...Option) *Builder {
	b := &Builder{client: client}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build processes activities in the given order. Activities without GPS data are
// skipped. Features, tracks and seen ids are sorted by start date afterwards and
// the latest position is taken from the newest track. A cancelled context fails
// the build even when failures are isolated.
func (b *Builder) Build(ctx context.Context, activities []strava.Activity) (*Result, error) {
	ctx, span := otel.StartSpan(ctx, b.tracer, "track.Build",
		trace.WithAttributes(otel.AttrResultCount.Int(len(activities))))
	defer span.End()

	result := &Result{
		Collection: geojson.NewFeatureCollection(),
		SeenIDs:    []int64{},
	}

	for _, activity := range activities {
		if err := ctx.Err(); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}

		streams, err := b.client.GetStreams(ctx, activity.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				otel.RecordError(span, ctxErr)
				return nil, ctxErr
			}
			if !b.isolateFailures {
				otel.RecordError(span, err)
				return nil, err
			}
			slog.WarnContext(ctx, "Skipping activity after stream fetch failure",
				"activity_id", activity.ID, "error", err)
			result.Failed++
			continue
		}

		if !streams.HasGPS() {
			slog.DebugContext(ctx, "Skipping activity without GPS data", "activity_id", activity.ID)
			result.Skipped++
			continue
		}

		feature := b.newFeature(activity, streams, len(result.Collection.Features))
		result.Collection.Append(feature)
		result.SeenIDs = append(result.SeenIDs, activity.ID)
		result.Tracks = append(result.Tracks, Track{Activity: activity, Streams: streams})
	}

	if err := SortAndRelabel(result.Collection.Features); err != nil {
		slog.WarnContext(ctx, "Could not sort and relabel features, keeping build order", "error", err)
	}
	slices.SortStableFunc(result.Tracks, func(a, c Track) int {
		return strings.Compare(a.Activity.StartDate, c.Activity.StartDate)
	})
	slices.Sort(result.SeenIDs)

	if n := len(result.Tracks); n > 0 {
		newest := result.Tracks[n-1]
		last := newest.Streams.LatLng[len(newest.Streams.LatLng)-1]
		result.Latest = &Latest{Lat: last.Lat(), Lon: last.Lon(), TS: newest.Activity.StartDate}
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(result.Collection.Features)))
	slog.InfoContext(ctx, "Built track",
		"features", len(result.Collection.Features),
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

func (b *Builder) newFeature(activity strava.Activity, streams *strava.Streams, index int) *geojson.Feature {
	line := make(orb.LineString, 0, len(streams.LatLng))
	for _, p := range streams.LatLng {
		line = append(line, orb.Point{p.Lon(), p.Lat()})
	}

	feature := geojson.NewFeature(line)
	feature.Properties[PropIndex] = index
	feature.Properties[PropStravaID] = activity.ID
	feature.Properties[PropName] = activity.Name
	feature.Properties[PropStartDate] = activity.StartDate
	feature.Properties[PropDistance] = activity.Distance
	feature.Properties[PropMovingTime] = activity.MovingTime
	feature.Properties[PropType] = activity.Type
	feature.Properties[PropElevationGain] = activity.TotalElevationGain

	if b.encodedPolyline {
		coords := make([][]float64, len(streams.LatLng))
		for i, p := range streams.LatLng {
			coords[i] = []float64{p.Lat(), p.Lon()}
		}
		feature.Properties[PropPolyline] = string(polyline.EncodeCoords(coords))
	}

	return feature
}
