package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// feature pairs a geometry with its DBF attribute row.
type feature struct {
	geom  orb.Geometry
	attrs map[string]string
}

// readShapefile loads every polygon feature and its attributes. Non-polygon
// shapes (the MPA inventory ships none) are skipped.
func readShapefile(path string) ([]feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}

	var features []feature
	for reader.Next() {
		n, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = strings.TrimSpace(reader.ReadAttribute(n, i))
		}

		features = append(features, feature{
			geom:  polygonToMultiPolygon(poly),
			attrs: attrs,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return features, nil
}

// polygonToMultiPolygon regroups a shapefile polygon's parts into polygons
// with holes. Shapefile convention: outer rings wind clockwise, holes wind
// counterclockwise.
func polygonToMultiPolygon(p *shp.Polygon) orb.MultiPolygon {
	var mp orb.MultiPolygon

	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}

		if ring.Orientation() == orb.CW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
		} else {
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
		}
	}
	return mp
}

// record maps a feature's attribute row onto the fixed snapshot shape.
// Absent or blank DBF values become nil pointers and, downstream, SQL NULLs.
func record(f feature, wktGeom string) domain.ProtectedArea {
	return domain.ProtectedArea{
		SiteID:        strAttr(f.attrs, "Site_ID"),
		SiteName:      strAttr(f.attrs, "Site_Name"),
		GovLevel:      strAttr(f.attrs, "Gov_Level"),
		State:         strAttr(f.attrs, "State"),
		ProtLevel:     strAttr(f.attrs, "Prot_Lvl"),
		MgmtAgency:    strAttr(f.attrs, "Mgmt_Agen"),
		IUCNCategory:  strAttr(f.attrs, "IUCNcat"),
		EstabYear:     intAttr(f.attrs, "Estab_Yr"),
		AreaKm:        floatAttr(f.attrs, "AreaKm"),
		AreaMarineKm:  floatAttr(f.attrs, "AreaMar"),
		MarinePercent: intAttr(f.attrs, "MarPercent"),
		GeomWKT:       wktGeom,
	}
}

func strAttr(attrs map[string]string, key string) *string {
	v, ok := attrs[key]
	if !ok || v == "" {
		return nil
	}
	return &v
}

func intAttr(attrs map[string]string, key string) *int32 {
	v, ok := attrs[key]
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	i := int32(n)
	return &i
}

func floatAttr(attrs map[string]string, key string) *float64 {
	v, ok := attrs[key]
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
