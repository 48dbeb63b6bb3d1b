package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/stacklok/strava-track-sync/sync"

// Skip reasons recorded on the skipped-activities counter
const (
	SkipReasonNoGPS       = "no_gps"
	SkipReasonFetchFailed = "fetch_failed"
)

// SyncMetrics holds the OpenTelemetry instruments for sync runs
type SyncMetrics struct {
	runDuration       metric.Float64Histogram
	activitiesFetched metric.Int64Counter
	activitiesSkipped metric.Int64Counter
	featuresTotal     metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"strava_sync_run_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	activitiesFetched, err := meter.Int64Counter(
		"strava_sync_activities_fetched_total",
		metric.WithDescription("Number of activities returned by the activity listing"),
		metric.WithUnit("{activity}"),
	)
	if err != nil {
		return nil, err
	}

	activitiesSkipped, err := meter.Int64Counter(
		"strava_sync_activities_skipped_total",
		metric.WithDescription("Number of activities that produced no feature"),
		metric.WithUnit("{activity}"),
	)
	if err != nil {
		return nil, err
	}

	featuresTotal, err := meter.Int64Gauge(
		"strava_sync_features",
		metric.WithDescription("Number of features in the last written track"),
		metric.WithUnit("{feature}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		runDuration:       runDuration,
		activitiesFetched: activitiesFetched,
		activitiesSkipped: activitiesSkipped,
		featuresTotal:     featuresTotal,
	}, nil
}

// RecordRunDuration records the duration of a sync run
func (m *SyncMetrics) RecordRunDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordActivitiesFetched adds the number of listed activities
func (m *SyncMetrics) RecordActivitiesFetched(ctx context.Context, count int) {
	if m == nil || m.activitiesFetched == nil {
		return
	}
	m.activitiesFetched.Add(ctx, int64(count))
}

// RecordActivitiesSkipped adds skipped activities for a reason
func (m *SyncMetrics) RecordActivitiesSkipped(ctx context.Context, reason string, count int) {
	if m == nil || m.activitiesSkipped == nil || count == 0 {
		return
	}
	m.activitiesSkipped.Add(ctx, int64(count), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordFeatures records the feature count of the written track
func (m *SyncMetrics) RecordFeatures(ctx context.Context, count int) {
	if m == nil || m.featuresTotal == nil {
		return
	}
	m.featuresTotal.Record(ctx, int64(count))
}
