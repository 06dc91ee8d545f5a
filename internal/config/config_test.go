package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "https://marinecadastre.gov/downloads/ais2024", cfg.AISBaseURL)
	assert.Equal(t, "2024-01-01", cfg.AISStartDate)
	assert.Equal(t, "2024-12-31", cfg.AISEndDate)
	assert.Equal(t, domain.USCoast, cfg.Region)
	assert.Equal(t, time.Second, cfg.FetchDelay)
	assert.Equal(t, 5*time.Minute, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("DATA_DIR", "/srv/marine")
	t.Setenv("AIS_START_DATE", "2024-06-01")
	t.Setenv("AIS_END_DATE", "2024-06-30")
	t.Setenv("FETCH_DELAY", "250ms")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL)
	assert.Equal(t, "/srv/marine", cfg.DataDir)
	assert.Equal(t, 250*time.Millisecond, cfg.FetchDelay)
	assert.Equal(t, "json", cfg.LogFormat)

	r, err := cfg.AISRange()
	require.NoError(t, err)
	assert.Len(t, r.Days(), 30)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marinerisk.yaml")
	yaml := `
data_dir: /tmp/marine
ais_start_date: "2024-03-01"
ais_end_date: "2024-03-05"
filter_region:
  min_lon: -10
  min_lat: -10
  max_lon: 10
  max_lat: 10
s3_bucket: marine-risk-test
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/marine", cfg.DataDir)
	assert.Equal(t, "marine-risk-test", cfg.S3Bucket)
	assert.Equal(t, domain.Region{MinLon: -10, MinLat: -10, MaxLon: 10, MaxLat: 10}, cfg.Region)
}

func TestLoad_EnvBeatsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marinerisk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/yaml\n"), 0o644))
	t.Setenv("DATA_DIR", "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
}

func TestLoad_InvalidDateRange(t *testing.T) {
	t.Setenv("AIS_START_DATE", "2024-12-31")
	t.Setenv("AIS_END_DATE", "2024-01-01")

	_, err := Load("")
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "raw", "ais"), cfg.AISDir())
	assert.Equal(t, filepath.Join("data", "raw", "mpa", "mpa_inventory.parquet"), cfg.MPASnapshotFile())
	assert.Equal(t, filepath.Join("data", "raw", "cetacean", "us_cetacean_sightings.parquet"), cfg.SightingsFile())
}
