package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/parquet-go/parquet-go"
)

// LoadProtectedAreas reads the normalized MPA snapshot and inserts every
// feature in one multi-row statement. A missing snapshot is a warning, not a
// failure: the normalizer simply has not run yet.
func (s *Store) LoadProtectedAreas(ctx context.Context) (int64, error) {
	path := s.cfg.MPASnapshotFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Warn("MPA snapshot not found", "path", path)
		return 0, nil
	}

	rows, err := parquet.ReadFile[domain.ProtectedArea](path)
	if err != nil {
		return 0, fmt.Errorf("read MPA snapshot: %w", err)
	}
	s.logger.Info("read MPA features", "count", len(rows))
	if len(rows) == 0 {
		return 0, nil
	}

	stmt, args := protectedAreaInsert(rows)
	tag, err := s.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("insert protected areas: %w", err)
	}
	return tag.RowsAffected(), nil
}

// protectedAreaInsert builds one parameterized multi-row INSERT. The
// geometry arrives as WKT text and is typed inline per row.
func protectedAreaInsert(rows []domain.ProtectedArea) (string, []any) {
	const cols = 12
	var b strings.Builder
	b.WriteString(`INSERT INTO marine_protected_areas
		(site_id, site_name, gov_level, state, prot_lvl,
		 mgmt_agen, iucn_cat, estab_yr, area_km, area_mar,
		 mar_percent, geom)
	VALUES `)

	args := make([]any, 0, len(rows)*cols)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, ST_GeomFromText($%d, 4326))",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11, base+12)
		args = append(args,
			r.SiteID, r.SiteName, r.GovLevel, r.State, r.ProtLevel,
			r.MgmtAgency, r.IUCNCategory, r.EstabYear, r.AreaKm,
			r.AreaMarineKm, r.MarinePercent, r.GeomWKT,
		)
	}
	return b.String(), args
}

// LoadSightings reads the cetacean occurrence file and inserts every record
// in one multi-row statement, constructing each point from its coordinate
// pair.
func (s *Store) LoadSightings(ctx context.Context) (int64, error) {
	path := s.cfg.SightingsFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Warn("sightings file not found", "path", path)
		return 0, nil
	}

	rows, err := parquet.ReadFile[domain.Sighting](path)
	if err != nil {
		return 0, fmt.Errorf("read sightings: %w", err)
	}
	s.logger.Info("read cetacean sightings", "count", len(rows))
	if len(rows) == 0 {
		return 0, nil
	}

	stmt, args := sightingInsert(rows)
	tag, err := s.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("insert sightings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// sightingInsert builds one parameterized multi-row INSERT. The geometry
// reuses the latitude/longitude parameters: ST_MakePoint takes lon first.
func sightingInsert(rows []domain.Sighting) (string, []any) {
	const cols = 8
	var b strings.Builder
	b.WriteString(`INSERT INTO cetacean_sightings
		(scientific_name, decimal_latitude, decimal_longitude,
		 event_date, date_year, "order", family, species, geom)
	VALUES `)

	args := make([]any, 0, len(rows)*cols)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, ST_SetSRID(ST_MakePoint($%d, $%d), 4326))",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			base+3, base+2)
		args = append(args,
			r.ScientificName, r.Latitude, r.Longitude, r.EventDate,
			r.Year, r.Order, r.Family, r.Species,
		)
	}
	return b.String(), args
}
