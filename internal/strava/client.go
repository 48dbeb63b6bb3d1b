package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/strava-track-sync/internal/httpclient"
	"github.com/stacklok/strava-track-sync/internal/otel"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client is the read API of the provider used by a sync run
type Client interface {
	// ListActivities returns one page of the athlete's activities
	ListActivities(ctx context.Context, page, perPage int) ([]Activity, error)

	// GetStreams returns the latlng and time streams of one activity.
	// A missing or empty latlng stream is not an error.
	GetStreams(ctx context.Context, activityID int64) (*Streams, error)
}

// APIClient implements Client on top of an authenticated httpclient.Client
type APIClient struct {
	baseURL    string
	httpClient httpclient.Client
	tracer     trace.Tracer
}

// ClientOption configures an APIClient
type ClientOption func(*APIClient)

// WithTracer records a span per API call
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *APIClient) {
		c.tracer = tracer
	}
}

// NewClient creates an API client rooted at baseURL (e.g. https://www.strava.com/api/v3).
// httpClient must add the bearer token, see NewAuthenticatedHTTPClient.
func NewClient(baseURL string, httpClient httpclient.Client, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListActivities fetches GET /athlete/activities?per_page={perPage}&page={page}
func (c *APIClient) ListActivities(ctx context.Context, page, perPage int) ([]Activity, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "strava.ListActivities",
		trace.WithAttributes(otel.AttrPage.Int(page), otel.AttrPageSize.Int(perPage)))
	defer span.End()

	url := fmt.Sprintf("%s/athlete/activities?per_page=%d&page=%d", c.baseURL, perPage, page)
	body, err := c.httpClient.Get(ctx, url)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list activities page %d: %w", page, err)
	}

	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to decode activities page %d: %w", page, err)
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(activities)))
	return activities, nil
}

// GetStreams fetches GET /activities/{id}/streams?keys=latlng,time&key_by_type=true
func (c *APIClient) GetStreams(ctx context.Context, activityID int64) (*Streams, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "strava.GetStreams",
		trace.WithAttributes(otel.AttrActivityID.Int64(activityID)))
	defer span.End()

	url := fmt.Sprintf("%s/activities/%d/streams?keys=latlng,time&key_by_type=true", c.baseURL, activityID)
	body, err := c.httpClient.Get(ctx, url)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to fetch streams of activity %d: %w", activityID, err)
	}

	streams, err := ParseStreams(body)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to decode streams of activity %d: %w", activityID, err)
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(streams.LatLng)))
	return streams, nil
}

// ParseStreams extracts the latlng and time channels from a streams response.
// Both the keyed object form ({"latlng": {"data": [...]}}) and the list form
// ([{"type": "latlng", "data": [...]}]) are accepted.
func ParseStreams(body []byte) (*Streams, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	var latlngPath, timePath string
	switch {
	case root.IsObject():
		latlngPath, timePath = "latlng.data", "time.data"
	case root.IsArray():
		latlngPath, timePath = `#(type=="latlng").data`, `#(type=="time").data`
	default:
		return nil, fmt.Errorf("unexpected streams response type %s", root.Type)
	}

	streams := &Streams{}

	latlng := root.Get(latlngPath)
	if latlng.Exists() && latlng.Type != gjson.Null && !latlng.IsArray() {
		return nil, fmt.Errorf("latlng data is not an array")
	}
	for i, value := range latlng.Array() {
		pair := value.Array()
		if !value.IsArray() || len(pair) < 2 || pair[0].Type != gjson.Number || pair[1].Type != gjson.Number {
			return nil, fmt.Errorf("malformed latlng sample %d: %s", i, value.Raw)
		}
		streams.LatLng = append(streams.LatLng, LatLng{pair[0].Float(), pair[1].Float()})
	}

	if times := root.Get(timePath); times.IsArray() {
		for _, value := range times.Array() {
			streams.Time = append(streams.Time, value.Int())
		}
	}

	return streams, nil
}
