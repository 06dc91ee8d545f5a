package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parquet-go/parquet-go"
)

// stagingDDL creates the untyped landing zone for one file's rows. Plain
// scalar and text columns only: the COPY text protocol cannot construct
// geometry, hence the geom_wkt TEXT column converted in a second phase.
const stagingDDL = `CREATE TEMP TABLE %s (
	mmsi INTEGER, base_date_time TEXT, sog REAL, cog REAL,
	heading SMALLINT, vessel_name TEXT, imo TEXT, call_sign TEXT,
	vessel_type SMALLINT, status SMALLINT, length REAL,
	width SMALLINT, draft REAL, cargo SMALLINT, transceiver TEXT,
	geom_wkt TEXT
)`

// staging is the two-state per-file unit: staged until convertInsert
// succeeds, committed afterwards. The relation never outlives the file's
// processing: drop runs on every exit path, and the TEMP scope ends the
// relation with the session even if drop itself fails.
type staging struct {
	conn      *pgxpool.Conn
	name      string
	committed bool
	logger    *slog.Logger
}

func newStaging(ctx context.Context, conn *pgxpool.Conn, logger *slog.Logger) (*staging, error) {
	name := "ais_staging_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := conn.Exec(ctx, fmt.Sprintf(stagingDDL, name)); err != nil {
		return nil, fmt.Errorf("create staging relation: %w", err)
	}
	return &staging{conn: conn, name: name, logger: logger}, nil
}

// copyRows bulk-transfers the TSV buffer via the line-oriented COPY protocol.
func (st *staging) copyRows(ctx context.Context, buf *bytes.Buffer) (int64, error) {
	copySQL := fmt.Sprintf(
		`COPY %s (%s) FROM STDIN WITH (FORMAT text, NULL '\N')`,
		st.name, strings.Join(positionColumns, ", "),
	)
	tag, err := st.conn.Conn().PgConn().CopyFrom(ctx, buf, copySQL)
	if err != nil {
		return 0, fmt.Errorf("copy into staging: %w", err)
	}
	return tag.RowsAffected(), nil
}

// convertInsert reads every staging row, casts scalars to their final types,
// constructs the typed geometry from its text form, and inserts the result
// into the durable relation in one set-based statement.
func (st *staging) convertInsert(ctx context.Context) (int64, error) {
	stmt := fmt.Sprintf(`
		INSERT INTO ais_positions
			(mmsi, base_date_time, sog, cog, heading, vessel_name,
			 imo, call_sign, vessel_type, status, length, width,
			 draft, cargo, transceiver, geom)
		SELECT
			mmsi, base_date_time::timestamp, sog, cog, heading,
			vessel_name, imo, call_sign, vessel_type, status,
			length, width, draft, cargo, transceiver,
			ST_GeomFromText(geom_wkt, 4326)
		FROM %s`, st.name)

	tag, err := st.conn.Exec(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("convert staging rows: %w", err)
	}
	st.committed = true
	return tag.RowsAffected(), nil
}

// drop discards the staging relation. Safe to call after any failure.
func (st *staging) drop(ctx context.Context) {
	if !st.committed {
		st.logger.Warn("discarding staging relation before commit", "staging", st.name)
	}
	if _, err := st.conn.Exec(ctx, "DROP TABLE IF EXISTS "+st.name); err != nil {
		st.logger.Warn("could not drop staging relation", "staging", st.name, "error", err)
	}
}

// LoadPositions is the high-volume path: every AIS parquet file, in sorted
// order, one at a time, through the staged COPY-then-convert pattern.
// Returns the total row count across all files.
func (s *Store) LoadPositions(ctx context.Context) (int64, error) {
	files, err := filepath.Glob(filepath.Join(s.cfg.AISDir(), "*.parquet"))
	if err != nil {
		return 0, fmt.Errorf("scan AIS dir: %w", err)
	}
	if len(files) == 0 {
		s.logger.Warn("no AIS parquet files found", "dir", s.cfg.AISDir())
		return 0, nil
	}
	sort.Strings(files)
	s.logger.Info("found AIS files to load", "count", len(files))

	// One dedicated connection for the whole run: TEMP staging relations are
	// session-scoped, and the running total is only meaningful sequentially.
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	for i, path := range files {
		s.logger.Info("reading file", "current", i+1, "total", len(files), "file", filepath.Base(path))

		rows, err := s.loadPositionFile(ctx, conn, path)
		if err != nil {
			return total, fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
		total += rows
		s.logger.Info("file loaded",
			"current", i+1, "total", len(files),
			"file", filepath.Base(path), "rows", rows, "running_total", total,
		)
	}

	s.logger.Info("AIS loading complete", "rows", total)
	return total, nil
}

// loadPositionFile runs one file through read → flatten → copy → convert.
// Peak memory is bounded by one file: the record slice is released once the
// TSV buffer is built, the buffer once COPY consumes it.
func (s *Store) loadPositionFile(ctx context.Context, conn *pgxpool.Conn, path string) (int64, error) {
	start := time.Now()

	records, err := parquet.ReadFile[domain.PositionReport](path)
	if err != nil {
		return 0, fmt.Errorf("read parquet: %w", err)
	}

	buf, err := positionsTSV(records)
	if err != nil {
		return 0, err
	}
	records = nil

	st, err := newStaging(ctx, conn, s.logger)
	if err != nil {
		return 0, err
	}
	defer st.drop(ctx)

	if _, err := st.copyRows(ctx, buf); err != nil {
		return 0, err
	}

	inserted, err := st.convertInsert(ctx)
	if err != nil {
		return 0, err
	}

	s.metrics.FileLoadDuration.Observe(time.Since(start).Seconds())
	return inserted, nil
}
