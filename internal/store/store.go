// Package store loads the normalized marine datasets into PostGIS.
//
// Three target relations exist: marine_protected_areas, cetacean_sightings,
// and ais_positions. Each gets its designated loader; the highest-volume AIS
// path goes through a staged COPY (see staged.go), the other two through
// multi-row inserts (see batch.go). The connection runs in autocommit mode:
// each statement commits independently, so a crashed run resumes via the
// table-level skip check rather than transactional rollback.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/marine-risk-pipeline/internal/config"
	"github.com/couchcryptid/marine-risk-pipeline/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Target relation names, in load order. Order is fixed so partial-failure
// reports always point at the same place in the sequence.
const (
	TableProtectedAreas = "marine_protected_areas"
	TableSightings      = "cetacean_sightings"
	TablePositions      = "ais_positions"
)

// TableCount reports the current row count of one target relation.
type TableCount struct {
	Table string
	Rows  int64
}

// Store owns the database pool and the dataset file locations.
type Store struct {
	pool    *pgxpool.Pool
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open connects to PostGIS and returns a Store.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, cfg: cfg, logger: logger, metrics: metrics}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RowCount returns the current row count of a target relation.
func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	// Table names come from the fixed constants above, never from input.
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// tableSpec ties a relation to its designated loader.
type tableSpec struct {
	name string
	load func(ctx context.Context) (int64, error)
}

func (s *Store) tables() []tableSpec {
	return []tableSpec{
		{TableProtectedAreas, s.LoadProtectedAreas},
		{TableSightings, s.LoadSightings},
		{TablePositions, s.LoadPositions},
	}
}

// LoadAll runs every relation's loader in declared order, skipping any
// relation that already holds rows. A nonzero count is the sole idempotency
// signal: it cannot distinguish a complete prior load from an interrupted
// one. Loader errors are not caught here; an unhandled failure typically
// means a broken connection, so the remaining sequence is abandoned.
func (s *Store) LoadAll(ctx context.Context) ([]TableCount, error) {
	for _, spec := range s.tables() {
		count, err := s.RowCount(ctx, spec.name)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			s.logger.Info("table already populated, skipping", "table", spec.name, "rows", count)
			s.metrics.TablesSkipped.Inc()
			continue
		}

		rows, err := spec.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", spec.name, err)
		}
		s.metrics.RowsLoaded.WithLabelValues(spec.name).Add(float64(rows))
		s.logger.Info("table loaded", "table", spec.name, "rows", rows)
	}

	// Report current truth for every relation, loaded this run or not.
	counts := make([]TableCount, 0, 3)
	for _, spec := range s.tables() {
		count, err := s.RowCount(ctx, spec.name)
		if err != nil {
			return nil, err
		}
		s.logger.Info("final row count", "table", spec.name, "rows", count)
		counts = append(counts, TableCount{Table: spec.name, Rows: count})
	}
	return counts, nil
}
