package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	prjWGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

	prjWebMercator = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],UNIT["Meter",1.0]]`

	prjLambert = `PROJCS["NAD_1983_Contiguous_USA_Albers",GEOGCS["GCS_North_American_1983",DATUM["D_North_American_1983",SPHEROID["GRS_1980",6378137.0,298.257222101]]],PROJECTION["Albers"],UNIT["Meter",1.0]]`
)

func TestParseCRS(t *testing.T) {
	assert.Equal(t, CRSWGS84, parseCRS(prjWGS84))
	// Web Mercator names its WGS-84 datum; the Mercator marker must win.
	assert.Equal(t, CRSWebMercator, parseCRS(prjWebMercator))
	assert.Equal(t, CRSUnknown, parseCRS(prjLambert))
}

func TestDetectCRS_MissingSidecarIsCanonical(t *testing.T) {
	crs, err := detectCRS(t.TempDir() + "/absent.prj")
	assert.NoError(t, err)
	assert.Equal(t, CRSWGS84, crs)
}
