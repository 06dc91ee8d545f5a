// Package domain models the three marine datasets the pipeline ingests.
//
// # Data Sources
//
// AIS vessel positions come from the NOAA Marine Cadastre archive as one
// GeoParquet file per calendar day. Each row is a single AIS broadcast:
// vessel identity (MMSI, IMO, call sign), kinematics (speed/course over
// ground, heading), static attributes (type, dimensions, draft, cargo code)
// and a point geometry. Most attribute columns are optional — class B
// transceivers omit many of them.
//
// Cetacean sightings are OBIS occurrence records filtered upstream to US
// waters: species taxonomy plus a decimal latitude/longitude pair. There is
// no geometry column in the source; points are constructed at load time.
//
// Marine protected areas come from the NOAA MPA Inventory, distributed as a
// zipped shapefile. The normalizer reprojects, filters, and flattens that
// archive into a parquet snapshot whose rows this package models as
// [ProtectedArea].
//
// # Coordinate Reference
//
// Every geometry stored by the pipeline is longitude/latitude WGS-84
// (EPSG:4326). Sources that arrive in Web Mercator are reprojected before
// any spatial filtering.
//
// # Null Conventions
//
// Optional source fields are pointer-typed. A nil pointer flows through the
// loaders as a SQL NULL, never as an empty string or a stringified sentinel.
package domain
