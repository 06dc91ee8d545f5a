package store

import (
	"context"
	"fmt"
)

// Schema DDL. Everything is IF NOT EXISTS so provisioning is rerunnable.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,

	`CREATE TABLE IF NOT EXISTS ais_positions (
		id              SERIAL PRIMARY KEY,
		mmsi            INTEGER NOT NULL,
		base_date_time  TIMESTAMP NOT NULL,
		sog             REAL,
		cog             REAL,
		heading         SMALLINT,
		vessel_name     TEXT,
		imo             TEXT,
		call_sign       TEXT,
		vessel_type     SMALLINT,
		status          SMALLINT,
		length          REAL,
		width           SMALLINT,
		draft           REAL,
		cargo           SMALLINT,
		transceiver     CHAR(1),
		geom            GEOMETRY(Point, 4326) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS cetacean_sightings (
		id                  SERIAL PRIMARY KEY,
		scientific_name     TEXT,
		decimal_latitude    DOUBLE PRECISION NOT NULL,
		decimal_longitude   DOUBLE PRECISION NOT NULL,
		event_date          TEXT,
		date_year           SMALLINT,
		"order"             TEXT,
		family              TEXT,
		species             TEXT,
		geom                GEOMETRY(Point, 4326) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS marine_protected_areas (
		id              SERIAL PRIMARY KEY,
		site_id         TEXT,
		site_name       TEXT,
		gov_level       TEXT,
		state           TEXT,
		prot_lvl        TEXT,
		mgmt_agen       TEXT,
		iucn_cat        TEXT,
		estab_yr        SMALLINT,
		area_km         REAL,
		area_mar        REAL,
		mar_percent     SMALLINT,
		geom            GEOMETRY(MultiPolygon, 4326) NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ais_geom ON ais_positions USING GIST (geom)`,
	`CREATE INDEX IF NOT EXISTS idx_cetacean_geom ON cetacean_sightings USING GIST (geom)`,
	`CREATE INDEX IF NOT EXISTS idx_mpa_geom ON marine_protected_areas USING GIST (geom)`,
	`CREATE INDEX IF NOT EXISTS idx_ais_time ON ais_positions (base_date_time)`,
	`CREATE INDEX IF NOT EXISTS idx_ais_mmsi ON ais_positions (mmsi)`,
	`CREATE INDEX IF NOT EXISTS idx_cetacean_species ON cetacean_sightings (species)`,
}

// Provision enables PostGIS and creates the target relations and their
// indexes. A one-time setup step, safe to rerun.
func (s *Store) Provision(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("provision schema: %w", err)
		}
	}
	s.logger.Info("schema provisioning complete")
	return nil
}
