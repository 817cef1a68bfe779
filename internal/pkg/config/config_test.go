package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/elevprofile/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("elevprofile-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "EPSG:4326", cfg.Profile.SourceCRS)
	assert.Equal(t, "EPSG:3786", cfg.Profile.PlanarCRS)
	assert.Equal(t, 9, cfg.Profile.Zoom)
	assert.Equal(t, 50.0, cfg.Profile.Step)
	assert.Equal(t, 8, cfg.Profile.Workers)
	assert.False(t, cfg.Profile.FailFast)
	assert.Equal(t, "http", cfg.Tiles.Source)
	assert.Equal(t, "elevprofile-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, "elevation-profiles", cfg.Temporal.TaskQueue)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ELEVPROFILE_PROFILE_STEP", "25")
	t.Setenv("ELEVPROFILE_PROFILE_ZOOM", "12")
	t.Setenv("ELEVPROFILE_TILES_SOURCE", "gcs")
	t.Setenv("ELEVPROFILE_TILES_BUCKET", "dem-tiles")

	cfg, err := config.Load("elevprofile-test")
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.Profile.Step)
	assert.Equal(t, 12, cfg.Profile.Zoom)
	assert.Equal(t, "gcs", cfg.Tiles.Source)
	assert.Equal(t, "dem-tiles", cfg.Tiles.Bucket)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ELEVPROFILE_PROFILE_STEP", "0")
	t.Setenv("ELEVPROFILE_TILES_SOURCE", "gcs")

	_, err := config.Load("elevprofile-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile.step must be positive")
	assert.Contains(t, err.Error(), "tiles.bucket is required")
}

func validConfig() config.Config {
	return config.Config{
		Server:   config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 30},
		Database: config.DatabaseConfig{Port: 5432},
		Profile: config.ProfileConfig{
			SourceCRS: "EPSG:4326", PlanarCRS: "EPSG:3786",
			Zoom: 9, Step: 50, Workers: 4,
		},
		Tiles: config.TilesConfig{
			Source:         "http",
			URLTemplate:    "http://tiles/{z}/{x}/{y}.png",
			TimeoutSeconds: 30,
		},
		Retry: config.RetryConfig{MaxAttempts: 3},
		Log:   config.LogConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"bad zoom", func(c *config.Config) { c.Profile.Zoom = 16 }, "profile.zoom must be 0-15"},
		{"negative step", func(c *config.Config) { c.Profile.Step = -1 }, "profile.step must be positive"},
		{"no workers", func(c *config.Config) { c.Profile.Workers = 0 }, "profile.workers"},
		{"unknown crs", func(c *config.Config) { c.Profile.PlanarCRS = "EPSG:2154" }, "profile.planar_crs"},
		{"bad source crs", func(c *config.Config) { c.Profile.SourceCRS = "EPSG:3857" }, "profile.source_crs"},
		{"template", func(c *config.Config) { c.Tiles.URLTemplate = "http://tiles/{z}.png" }, "tiles.url_template"},
		{"source", func(c *config.Config) { c.Tiles.Source = "s3" }, "tiles.source must be http or gcs"},
		{"log level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
