package domain

// PositionReport mirrors one row of a daily AIS GeoParquet file.
// Pointer fields are absent for many class B broadcasts.
type PositionReport struct {
	MMSI         int32    `parquet:"mmsi"`
	BaseDateTime string   `parquet:"base_date_time"`
	SOG          *float32 `parquet:"sog,optional"`
	COG          *float32 `parquet:"cog,optional"`
	Heading      *int32   `parquet:"heading,optional"`
	VesselName   *string  `parquet:"vessel_name,optional"`
	IMO          *string  `parquet:"imo,optional"`
	CallSign     *string  `parquet:"call_sign,optional"`
	VesselType   *int32   `parquet:"vessel_type,optional"`
	Status       *int32   `parquet:"status,optional"`
	Length       *float32 `parquet:"length,optional"`
	Width        *int32   `parquet:"width,optional"`
	Draft        *float32 `parquet:"draft,optional"`
	Cargo        *int32   `parquet:"cargo,optional"`
	Transceiver  *string  `parquet:"transceiver,optional"`

	// Geometry is the GeoParquet point encoded as WKB.
	Geometry []byte `parquet:"geometry"`
}

// Sighting mirrors one row of the cetacean occurrence parquet file.
// Column names follow the Darwin Core fields the source exports.
type Sighting struct {
	ScientificName *string `parquet:"scientificName,optional"`
	Latitude       float64 `parquet:"decimalLatitude"`
	Longitude      float64 `parquet:"decimalLongitude"`
	EventDate      *string `parquet:"eventDate,optional"`
	Year           *int32  `parquet:"date_year,optional"`
	Order          *string `parquet:"order,optional"`
	Family         *string `parquet:"family,optional"`
	Species        *string `parquet:"species,optional"`
}

// ProtectedArea is one row of the normalized MPA snapshot written by the
// archive normalizer and read back by the row-batch loader.
type ProtectedArea struct {
	SiteID        *string  `parquet:"site_id,optional"`
	SiteName      *string  `parquet:"site_name,optional"`
	GovLevel      *string  `parquet:"gov_level,optional"`
	State         *string  `parquet:"state,optional"`
	ProtLevel     *string  `parquet:"prot_lvl,optional"`
	MgmtAgency    *string  `parquet:"mgmt_agen,optional"`
	IUCNCategory  *string  `parquet:"iucn_cat,optional"`
	EstabYear     *int32   `parquet:"estab_yr,optional"`
	AreaKm        *float64 `parquet:"area_km,optional"`
	AreaMarineKm  *float64 `parquet:"area_mar,optional"`
	MarinePercent *int32   `parquet:"mar_percent,optional"`

	// GeomWKT is the feature geometry as well-known text, EPSG:4326.
	GeomWKT string `parquet:"geom_wkt"`
}
