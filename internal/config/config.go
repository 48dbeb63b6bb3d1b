// Package config provides configuration loading and management for the track sync job.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/strava-track-sync/internal/telemetry"
)

const (
	// DefaultBaseURL is the Strava REST API root
	DefaultBaseURL = "https://www.strava.com/api/v3"

	// DefaultTokenURL is the Strava OAuth token endpoint
	DefaultTokenURL = "https://www.strava.com/oauth/token"

	// DefaultPerPage is the number of activities requested per page
	DefaultPerPage = 50

	// DefaultMaxPages is the fixed number of activity pages fetched per run.
	// Together with DefaultPerPage this caps the history at 200 activities.
	DefaultMaxPages = 4

	// DefaultTimeout is the per-request HTTP timeout
	DefaultTimeout = "30s"

	// DefaultRetryInitialInterval is the first backoff interval when retries are enabled
	DefaultRetryInitialInterval = "500ms"

	// DefaultTrackPath is where the GeoJSON feature collection is written
	DefaultTrackPath = "data/track.geojson"

	// DefaultLatestPath is where the latest position marker is written
	DefaultLatestPath = "data/latest.json"

	// DefaultStatePath is where the seen activity ids are written
	DefaultStatePath = "data/strava_state.json"

	// maxPerPage is the largest page size the provider accepts
	maxPerPage = 200
)

// DefaultLockPath is the lock file guarding concurrent runs. It lives outside the
// published output directory.
var DefaultLockPath = filepath.Join(os.TempDir(), "strava-track-sync.lock")

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure.
// Credentials never come from the file, see LoadCredentials.
type Config struct {
	Credentials Credentials `yaml:"-"`

	API       APIConfig         `yaml:"api"`
	Output    OutputConfig      `yaml:"output"`
	Sync      SyncConfig        `yaml:"sync"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// APIConfig defines how the provider API is reached
type APIConfig struct {
	// BaseURL is the REST API root, e.g. https://www.strava.com/api/v3
	BaseURL string `yaml:"baseURL,omitempty"`

	// TokenURL is the OAuth token endpoint used for the refresh-token exchange
	TokenURL string `yaml:"tokenURL,omitempty"`

	// PerPage is the page size for the activity listing
	PerPage int `yaml:"perPage,omitempty"`

	// MaxPages is the number of pages requested on every run.
	// Pages are always fetched up to this count, even when an earlier page is short.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Timeout is the per-request timeout (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// Retry configures retries of GET requests. Nil or MaxAttempts <= 1 disables retries.
	Retry *RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig defines retry behaviour for API reads
type RetryConfig struct {
	MaxAttempts     uint   `yaml:"maxAttempts,omitempty"`
	InitialInterval string `yaml:"initialInterval,omitempty"`
}

// OutputConfig defines where the artifacts are written
type OutputConfig struct {
	TrackPath  string `yaml:"trackPath,omitempty"`
	LatestPath string `yaml:"latestPath,omitempty"`
	StatePath  string `yaml:"statePath,omitempty"`

	// GPXPath enables an additional GPX export when set
	GPXPath string `yaml:"gpxPath,omitempty"`

	// LockPath is the lock file held for the duration of a run.
	// Defaults to DefaultLockPath; set to "-" to disable locking.
	LockPath string `yaml:"lockPath,omitempty"`

	// AtomicWrites writes through a temporary file and rename. Defaults to true.
	AtomicWrites *bool `yaml:"atomicWrites,omitempty"`

	// EncodedPolyline adds a "polyline" property with the encoded track to every feature
	EncodedPolyline bool `yaml:"encodedPolyline,omitempty"`
}

// SyncConfig defines the behaviour of a sync run
type SyncConfig struct {
	// IsolateStreamFailures skips an activity whose stream fetch fails instead of
	// aborting the whole run
	IsolateStreamFailures bool `yaml:"isolateStreamFailures,omitempty"`
}

// NewDefaultConfig returns a configuration with every default applied
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file when a path option is given,
// otherwise it returns the defaults. The result is validated.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var data []byte
	if loaderCfg.path != "" {
		var err error
		data, err = os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return Parse(data)
}

// Parse decodes a YAML configuration document, applies defaults and validates
// the result. An empty document yields the defaults.
func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.TokenURL == "" {
		c.API.TokenURL = DefaultTokenURL
	}
	if c.API.PerPage == 0 {
		c.API.PerPage = DefaultPerPage
	}
	if c.API.MaxPages == 0 {
		c.API.MaxPages = DefaultMaxPages
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultTimeout
	}
	if c.Output.TrackPath == "" {
		c.Output.TrackPath = DefaultTrackPath
	}
	if c.Output.LatestPath == "" {
		c.Output.LatestPath = DefaultLatestPath
	}
	if c.Output.StatePath == "" {
		c.Output.StatePath = DefaultStatePath
	}
	if c.Output.LockPath == "" {
		c.Output.LockPath = DefaultLockPath
	}
	if c.Output.AtomicWrites == nil {
		atomic := true
		c.Output.AtomicWrites = &atomic
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if err := validateURL("api.baseURL", c.API.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("api.tokenURL", c.API.TokenURL); err != nil {
		errs = append(errs, err)
	}
	if c.API.PerPage < 1 || c.API.PerPage > maxPerPage {
		errs = append(errs, fmt.Errorf("api.perPage must be between 1 and %d, got %d", maxPerPage, c.API.PerPage))
	}
	if c.API.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("api.maxPages must be at least 1, got %d", c.API.MaxPages))
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("api.timeout must be a valid duration (e.g., '30s'): %w", err))
	}
	if c.API.Retry != nil && c.API.Retry.InitialInterval != "" {
		if _, err := time.ParseDuration(c.API.Retry.InitialInterval); err != nil {
			errs = append(errs, fmt.Errorf("api.retry.initialInterval must be a valid duration: %w", err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, raw)
	}
	return nil
}

// GetTimeout returns the parsed request timeout
func (a *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// GetMaxAttempts returns the number of attempts per GET request, 1 when retries are off
func (a *APIConfig) GetMaxAttempts() uint {
	if a.Retry == nil || a.Retry.MaxAttempts < 1 {
		return 1
	}
	return a.Retry.MaxAttempts
}

// GetRetryInitialInterval returns the first backoff interval
func (a *APIConfig) GetRetryInitialInterval() time.Duration {
	raw := DefaultRetryInitialInterval
	if a.Retry != nil && a.Retry.InitialInterval != "" {
		raw = a.Retry.InitialInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		d, _ = time.ParseDuration(DefaultRetryInitialInterval)
	}
	return d
}

// UseAtomicWrites reports whether outputs are written through temp file and rename
func (o *OutputConfig) UseAtomicWrites() bool {
	return o.AtomicWrites == nil || *o.AtomicWrites
}

// GetLockPath returns the lock file path, or "" when locking is disabled
func (o *OutputConfig) GetLockPath() string {
	if o.LockPath == "-" {
		return ""
	}
	return o.LockPath
}
