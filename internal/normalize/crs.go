package normalize

import (
	"errors"
	"os"
	"strings"
)

// CRS identifies the coordinate reference of a shapefile, as declared by its
// .prj sidecar.
type CRS int

const (
	// CRSWGS84 is the canonical reference: longitude/latitude, EPSG:4326.
	CRSWGS84 CRS = iota
	// CRSWebMercator is EPSG:3857, the only projected reference the
	// normalizer knows how to undo.
	CRSWebMercator
	// CRSUnknown is anything else.
	CRSUnknown
)

// ErrUnsupportedCRS is returned when the source declares a projection the
// normalizer cannot reproject from.
var ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")

// detectCRS reads the .prj sidecar for a shapefile. A missing sidecar is
// treated as already-canonical, matching the common case of WGS-84 exports
// shipped without projection metadata.
func detectCRS(prjPath string) (CRS, error) {
	data, err := os.ReadFile(prjPath)
	if os.IsNotExist(err) {
		return CRSWGS84, nil
	}
	if err != nil {
		return CRSUnknown, err
	}
	return parseCRS(string(data)), nil
}

// parseCRS classifies a WKT projection definition. Mercator markers are
// checked first: Web Mercator definitions also name their WGS-84 datum.
func parseCRS(wkt string) CRS {
	s := strings.ToUpper(wkt)
	switch {
	case strings.Contains(s, "MERCATOR") || strings.Contains(s, "3857") || strings.Contains(s, "900913"):
		return CRSWebMercator
	case strings.Contains(s, "WGS_1984") || strings.Contains(s, "WGS 84") || strings.Contains(s, "4326"):
		return CRSWGS84
	default:
		return CRSUnknown
	}
}
