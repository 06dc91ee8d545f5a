// Package duckdb maintains a DuckDB database whose views point at the raw
// parquet files. Nothing is copied: DuckDB reads parquet directly, giving a
// SQL surface over the same files the PostGIS loaders consume.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/couchcryptid/marine-risk-pipeline/internal/config"
)

// view pairs a view name with the parquet path (or glob) it reads.
type view struct {
	name string
	path string
}

// Views manages the SQL-over-files layer.
type Views struct {
	dbPath string
	views  []view
	logger *slog.Logger
}

// New creates a Views manager over the configured dataset layout.
func New(cfg *config.Config, logger *slog.Logger) *Views {
	return &Views{
		dbPath: cfg.DuckDBPath,
		views: []view{
			{"ais", filepath.Join(cfg.AISDir(), "*.parquet")},
			{"cetacean_sightings", cfg.SightingsFile()},
			{"mpa", cfg.MPASnapshotFile()},
		},
		logger: logger,
	}
}

// Setup creates or replaces every view and verifies each with a count. The
// database file stores only view definitions, so recreating is cheap and
// idempotent.
func (v *Views) Setup(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(v.dbPath), 0o755); err != nil {
		return fmt.Errorf("create duckdb dir: %w", err)
	}

	db, err := sql.Open("duckdb", v.dbPath)
	if err != nil {
		return fmt.Errorf("open duckdb at %s: %w", v.dbPath, err)
	}
	defer db.Close()

	// Spatial gives geometry functions for ad hoc queries. Views over
	// parquet work without it, so an install failure (offline host) is not
	// fatal.
	if _, err := db.ExecContext(ctx, "INSTALL spatial; LOAD spatial;"); err != nil {
		v.logger.Warn("could not load duckdb spatial extension", "error", err)
	}

	var created []view
	for _, vw := range v.views {
		// Views bind their parquet source at creation, so a dataset that
		// has not been fetched yet is skipped rather than failing the run.
		if !v.present(vw.path) {
			v.logger.Warn("dataset not present, skipping view", "view", vw.name, "path", vw.path)
			continue
		}
		stmt := fmt.Sprintf(
			"CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet('%s')",
			vw.name, escapePath(vw.path),
		)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create view %s: %w", vw.name, err)
		}
		v.logger.Info("created view", "view", vw.name, "path", vw.path)
		created = append(created, vw)
	}

	v.verify(ctx, db, created)
	return nil
}

func (v *Views) present(path string) bool {
	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		return err == nil && len(matches) > 0
	}
	_, err := os.Stat(path)
	return err == nil
}

// verify runs a count through each created view. A failed count is a
// warning; the view stays defined.
func (v *Views) verify(ctx context.Context, db *sql.DB, created []view) {
	for _, vw := range created {
		var count int64
		err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+vw.name).Scan(&count)
		if err != nil {
			v.logger.Warn("view not readable", "view", vw.name, "error", err)
			continue
		}
		v.logger.Info("view verified", "view", vw.name, "rows", count)
	}
}

// escapePath doubles single quotes for embedding in a DuckDB string literal.
func escapePath(p string) string {
	return strings.ReplaceAll(p, "'", "''")
}
