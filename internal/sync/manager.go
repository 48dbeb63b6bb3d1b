package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/strava-track-sync/internal/config"
	"github.com/stacklok/strava-track-sync/internal/httpclient"
	"github.com/stacklok/strava-track-sync/internal/otel"
	"github.com/stacklok/strava-track-sync/internal/strava"
	"github.com/stacklok/strava-track-sync/internal/telemetry"
	"github.com/stacklok/strava-track-sync/internal/track"
	"github.com/stacklok/strava-track-sync/internal/writer"
)

// TracerName is the instrumentation name of sync spans
const TracerName = "github.com/stacklok/strava-track-sync/sync"

// Result contains the outcome of a successful sync run
type Result struct {
	RunID        string
	FeatureCount int
	Skipped      int
	Failed       int

	// Latest is nil when no activity had GPS data
	Latest *track.Latest

	// Written lists the output files in the order they were written
	Written  []string
	Duration time.Duration
}

// Manager runs the synchronization
type Manager interface {
	// Run performs one complete sync: refresh the token, list activities, fetch
	// their streams, build the track and write every output.
	Run(ctx context.Context) (*Result, error)
}

// ClientFactory creates the API client used for one run from its access token
type ClientFactory func(ctx context.Context, accessToken string) strava.Client

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	cfg           *config.Config
	tokenSource   strava.TokenSource
	clientFactory ClientFactory
	writer        writer.Writer
	tracer        trace.Tracer
	metrics       *telemetry.SyncMetrics
}

// Option configures the manager
type Option func(*defaultSyncManager)

// WithTokenSource replaces the refresh-token exchange
func WithTokenSource(ts strava.TokenSource) Option {
	return func(m *defaultSyncManager) {
		m.tokenSource = ts
	}
}

// WithClientFactory replaces the construction of the API client
func WithClientFactory(f ClientFactory) Option {
	return func(m *defaultSyncManager) {
		m.clientFactory = f
	}
}

// WithWriter replaces the output writer
func WithWriter(w writer.Writer) Option {
	return func(m *defaultSyncManager) {
		m.writer = w
	}
}

// WithTracer sets the tracer used for the run and every API call
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// WithMetrics sets the metrics recorder. Nil disables metrics.
func WithMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// NewManager creates a Manager for cfg. cfg.Credentials must be populated unless
// a token source is supplied.
func NewManager(cfg *config.Config, opts ...Option) Manager {
	m := &defaultSyncManager{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}

	if m.tracer == nil {
		m.tracer = tracenoop.NewTracerProvider().Tracer(TracerName)
	}
	if m.tokenSource == nil {
		m.tokenSource = strava.NewTokenRefresher(cfg.Credentials, cfg.API.TokenURL, cfg.API.GetTimeout())
	}
	if m.clientFactory == nil {
		m.clientFactory = NewAPIClientFactory(&cfg.API, m.tracer)
	}
	if m.writer == nil {
		m.writer = writer.NewFileWriter(cfg.Output.UseAtomicWrites())
	}
	return m
}

// NewAPIClientFactory returns a ClientFactory for the configured provider API.
// Requests carry the bearer token and honour the configured timeout and retries.
func NewAPIClientFactory(api *config.APIConfig, tracer trace.Tracer) ClientFactory {
	return func(ctx context.Context, accessToken string) strava.Client {
		timeout := api.GetTimeout()
		hc := httpclient.NewDefaultClient(timeout,
			httpclient.WithHTTPClient(strava.NewAuthenticatedHTTPClient(ctx, accessToken, timeout)),
			httpclient.WithRetry(api.GetMaxAttempts(), api.GetRetryInitialInterval()),
		)
		return strava.NewClient(api.BaseURL, hc, strava.WithTracer(tracer))
	}
}

// Run performs one complete sync
func (m *defaultSyncManager) Run(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.Run", trace.WithAttributes(otel.AttrRunID.String(runID)))
	defer span.End()

	defer func() {
		m.metrics.RecordRunDuration(ctx, time.Since(start), err == nil)
		if err != nil {
			otel.RecordError(span, err)
			slog.ErrorContext(ctx, "Sync failed", "run_id", runID, "error", err)
		}
	}()

	slog.InfoContext(ctx, "Starting sync", "run_id", runID)

	if lockPath := m.cfg.Output.GetLockPath(); lockPath != "" {
		lock, lockErr := writer.AcquireLock(lockPath)
		if lockErr != nil {
			return nil, newError(StageLock, "failed to acquire run lock", lockErr)
		}
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.WarnContext(ctx, "Failed to release run lock", "error", releaseErr)
			}
		}()
	}

	accessToken, err := m.tokenSource.AccessToken(ctx)
	if err != nil {
		return nil, newError(StageAuth, "authentication failed", err)
	}
	client := m.clientFactory(ctx, accessToken)

	activities, err := strava.ListRecentActivities(ctx, client, m.cfg.API.MaxPages, m.cfg.API.PerPage)
	if err != nil {
		return nil, newError(StageList, "failed to list activities", err)
	}
	m.metrics.RecordActivitiesFetched(ctx, len(activities))
	slog.InfoContext(ctx, "Listed activities", "run_id", runID, "count", len(activities))

	builder := track.NewBuilder(client,
		track.WithIsolatedFailures(m.cfg.Sync.IsolateStreamFailures),
		track.WithEncodedPolyline(m.cfg.Output.EncodedPolyline),
		track.WithTracer(m.tracer),
	)
	built, err := builder.Build(ctx, activities)
	if err != nil {
		return nil, newError(StageBuild, "failed to build track", err)
	}
	m.metrics.RecordActivitiesSkipped(ctx, telemetry.SkipReasonNoGPS, built.Skipped)
	m.metrics.RecordActivitiesSkipped(ctx, telemetry.SkipReasonFetchFailed, built.Failed)

	written, err := m.writeOutputs(ctx, built)
	if err != nil {
		return nil, newError(StageWrite, "failed to write outputs", err)
	}
	m.metrics.RecordFeatures(ctx, built.FeatureCount())

	result = &Result{
		RunID:        runID,
		FeatureCount: built.FeatureCount(),
		Skipped:      built.Skipped,
		Failed:       built.Failed,
		Latest:       built.Latest,
		Written:      written,
		Duration:     time.Since(start),
	}

	slog.InfoContext(ctx, "Sync completed",
		"run_id", runID,
		"features", result.FeatureCount,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration)

	return result, nil
}

// writeOutputs writes the track, the latest position when known, the state
// record and the optional GPX document. A failure leaves earlier files in place.
func (m *defaultSyncManager) writeOutputs(ctx context.Context, built *track.Result) ([]string, error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.WriteOutputs")
	defer span.End()

	out := m.cfg.Output
	var written []string

	write := func(path string, fn func() error) error {
		if err := fn(); err != nil {
			otel.RecordError(span, err)
			return err
		}
		span.AddEvent("file written", trace.WithAttributes(otel.AttrOutputPath.String(path)))
		written = append(written, path)
		return nil
	}

	if err := write(out.TrackPath, func() error {
		return m.writer.WriteJSON(ctx, out.TrackPath, built.Collection)
	}); err != nil {
		return written, err
	}

	if built.Latest != nil {
		if err := write(out.LatestPath, func() error {
			return m.writer.WriteJSON(ctx, out.LatestPath, built.Latest)
		}); err != nil {
			return written, err
		}
	}

	if err := write(out.StatePath, func() error {
		return m.writer.WriteJSON(ctx, out.StatePath, built.State())
	}); err != nil {
		return written, err
	}

	if out.GPXPath != "" {
		if err := write(out.GPXPath, func() error {
			data, err := track.EncodeGPX(built.Tracks)
			if err != nil {
				return err
			}
			return m.writer.WriteFile(ctx, out.GPXPath, data)
		}); err != nil {
			return written, err
		}
	}

	return written, nil
}
