package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/strava-track-sync/internal/telemetry"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		yamlContent string
		check       func(t *testing.T, cfg *Config)
		wantErr     string
	}{
		{
			name:        "empty_file_uses_defaults",
			yamlContent: ``,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
				assert.Equal(t, DefaultTokenURL, cfg.API.TokenURL)
				assert.Equal(t, 50, cfg.API.PerPage)
				assert.Equal(t, 4, cfg.API.MaxPages)
				assert.Equal(t, 30*time.Second, cfg.API.GetTimeout())
				assert.Equal(t, DefaultTrackPath, cfg.Output.TrackPath)
				assert.Equal(t, DefaultLatestPath, cfg.Output.LatestPath)
				assert.Equal(t, DefaultStatePath, cfg.Output.StatePath)
				assert.Equal(t, DefaultLockPath, cfg.Output.GetLockPath())
				assert.True(t, cfg.Output.UseAtomicWrites())
				assert.False(t, cfg.Sync.IsolateStreamFailures)
				assert.Equal(t, uint(1), cfg.API.GetMaxAttempts())
			},
		},
		{
			name: "full_config",
			yamlContent: `api:
  baseURL: http://localhost:9000/api/v3
  tokenURL: http://localhost:9000/oauth/token
  perPage: 100
  maxPages: 2
  timeout: 5s
  retry:
    maxAttempts: 3
    initialInterval: 1s
output:
  trackPath: out/track.geojson
  latestPath: out/latest.json
  statePath: out/state.json
  gpxPath: out/track.gpx
  lockPath: "-"
  atomicWrites: false
  encodedPolyline: true
sync:
  isolateStreamFailures: true
telemetry:
  enabled: true
  tracing:
    enabled: true
    sampling: 0.5`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "http://localhost:9000/api/v3", cfg.API.BaseURL)
				assert.Equal(t, 100, cfg.API.PerPage)
				assert.Equal(t, 2, cfg.API.MaxPages)
				assert.Equal(t, 5*time.Second, cfg.API.GetTimeout())
				assert.Equal(t, uint(3), cfg.API.GetMaxAttempts())
				assert.Equal(t, time.Second, cfg.API.GetRetryInitialInterval())
				assert.Equal(t, "out/track.gpx", cfg.Output.GPXPath)
				assert.Equal(t, "", cfg.Output.GetLockPath())
				assert.False(t, cfg.Output.UseAtomicWrites())
				assert.True(t, cfg.Output.EncodedPolyline)
				assert.True(t, cfg.Sync.IsolateStreamFailures)
				require.NotNil(t, cfg.Telemetry)
				assert.True(t, cfg.Telemetry.Enabled)
				assert.Equal(t, 0.5, cfg.Telemetry.Tracing.GetSampling())
			},
		},
		{
			name:        "invalid_yaml",
			yamlContent: "api: [unclosed",
			wantErr:     "failed to parse YAML config",
		},
		{
			name: "invalid_timeout",
			yamlContent: `api:
  timeout: soon`,
			wantErr: "api.timeout must be a valid duration",
		},
		{
			name: "per_page_too_large",
			yamlContent: `api:
  perPage: 500`,
			wantErr: "api.perPage must be between 1 and 200",
		},
		{
			name: "negative_max_pages",
			yamlContent: `api:
  maxPages: -1`,
			wantErr: "api.maxPages must be at least 1",
		},
		{
			name: "non_http_base_url",
			yamlContent: `api:
  baseURL: ftp://example.com`,
			wantErr: "api.baseURL must use http or https",
		},
		{
			name: "invalid_sampling",
			yamlContent: `telemetry:
  enabled: true
  tracing:
    enabled: true
    sampling: 2`,
			wantErr: "telemetry: tracing: sampling must be between 0.0 and 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfigFile(t, tt.yamlContent)
			cfg, err := LoadConfig(WithConfigPath(path))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigWithoutPath(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(WithConfigPath(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path is required")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to evaluate symlinks")
	})

	t.Run("symlink is resolved", func(t *testing.T) {
		t.Parallel()
		target := writeConfigFile(t, "api:\n  maxPages: 7\n")
		link := filepath.Join(t.TempDir(), "link.yaml")
		require.NoError(t, os.Symlink(target, link))

		cfg, err := LoadConfig(WithConfigPath(link))
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.API.MaxPages)
	})
}

func TestDefaultLockPathOutsideOutputDir(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()
	lockDir := filepath.Dir(cfg.Output.GetLockPath())
	assert.Equal(t, filepath.Clean(os.TempDir()), lockDir)
	for _, out := range []string{cfg.Output.TrackPath, cfg.Output.LatestPath, cfg.Output.StatePath} {
		assert.NotEqual(t, filepath.Dir(out), lockDir)
	}
}

func TestTelemetryNilIsValid(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()
	cfg.Telemetry = nil
	require.NoError(t, cfg.validate())

	cfg.Telemetry = &telemetry.Config{Enabled: false}
	require.NoError(t, cfg.validate())
}

func TestLoadCredentials(t *testing.T) {
	// t.Setenv is incompatible with t.Parallel

	t.Run("all present", func(t *testing.T) {
		t.Setenv(EnvClientID, "12345")
		t.Setenv(EnvClientSecret, "secret")
		t.Setenv(EnvRefreshToken, "refresh")

		creds, err := LoadCredentials()
		require.NoError(t, err)
		assert.Equal(t, Credentials{ClientID: "12345", ClientSecret: "secret", RefreshToken: "refresh"}, creds)
	})

	t.Run("missing secret and token", func(t *testing.T) {
		t.Setenv(EnvClientID, "12345")
		t.Setenv(EnvClientSecret, "")
		t.Setenv(EnvRefreshToken, "")

		_, err := LoadCredentials()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingCredentials)
		assert.Contains(t, err.Error(), EnvClientSecret)
		assert.Contains(t, err.Error(), EnvRefreshToken)
		assert.NotContains(t, err.Error(), EnvClientID)
	})

	t.Run("string redacts secrets", func(t *testing.T) {
		creds := Credentials{ClientID: "1", ClientSecret: "hunter2", RefreshToken: "abc"}
		assert.NotContains(t, creds.String(), "hunter2")
		assert.NotContains(t, creds.String(), "abc")
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)

	cfg, err = Parse([]byte("output:\n  gpxPath: out/track.gpx\n"))
	require.NoError(t, err)
	assert.Equal(t, "out/track.gpx", cfg.Output.GPXPath)
	assert.Equal(t, DefaultTrackPath, cfg.Output.TrackPath)

	_, err = Parse([]byte("api:\n  baseURL: \"::nope\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
