package duckdb_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/marine-risk-pipeline/internal/adapter/duckdb"
	"github.com/couchcryptid/marine-risk-pipeline/internal/config"
	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/duckdb/duckdb-go/v2"
)

func writeSightings(t *testing.T, path string, n int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)

	rows := make([]domain.Sighting, n)
	for i := range rows {
		rows[i] = domain.Sighting{Latitude: 36.0 + float64(i), Longitude: -121.0}
	}
	w := parquet.NewGenericWriter[domain.Sighting](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestSetup_CreatesQueryableViews(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:    dir,
		DuckDBPath: filepath.Join(dir, "marine_risk.duckdb"),
	}
	writeSightings(t, cfg.SightingsFile(), 4)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := duckdb.New(cfg, logger)
	require.NoError(t, v.Setup(context.Background()))

	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.QueryRow("SELECT count(*) FROM cetacean_sightings").Scan(&count))
	assert.Equal(t, int64(4), count)
}

func TestSetup_IdempotentWithMissingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:    dir,
		DuckDBPath: filepath.Join(dir, "marine_risk.duckdb"),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := duckdb.New(cfg, logger)

	// No parquet files exist yet: nothing errors, views are deferred until
	// the datasets arrive.
	require.NoError(t, v.Setup(context.Background()))
	require.NoError(t, v.Setup(context.Background()))

	writeSightings(t, cfg.SightingsFile(), 2)
	require.NoError(t, v.Setup(context.Background()))

	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.QueryRow("SELECT count(*) FROM cetacean_sightings").Scan(&count))
	assert.Equal(t, int64(2), count)
}

func TestSetup_AISViewReadsGlob(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:    dir,
		DuckDBPath: filepath.Join(dir, "marine_risk.duckdb"),
	}

	// The duckdb view reads the raw column shape; any parquet rows under the
	// glob count.
	for i := 0; i < 3; i++ {
		writeSightings(t, filepath.Join(cfg.AISDir(), fmt.Sprintf("ais-2024-01-0%d.parquet", i+1)), 2)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, duckdb.New(cfg, logger).Setup(context.Background()))

	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.QueryRow("SELECT count(*) FROM ais").Scan(&count))
	assert.Equal(t, int64(6), count, "glob view must union all daily files")
}
