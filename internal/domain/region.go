package domain

import "github.com/paulmach/orb"

// Region is a longitude/latitude rectangle used as the spatial inclusion
// filter for the MPA dataset.
type Region struct {
	MinLon float64 `yaml:"min_lon"`
	MinLat float64 `yaml:"min_lat"`
	MaxLon float64 `yaml:"max_lon"`
	MaxLat float64 `yaml:"max_lat"`
}

// USCoast is the default filter region: the approximate bounding box of the
// continental US coastline.
var USCoast = Region{MinLon: -130, MinLat: 24, MaxLon: -65, MaxLat: 49}

// Contains reports whether a feature envelope lies entirely inside the
// region. All four edges must be inside; a feature that straddles the
// boundary is excluded whole, not clipped.
func (r Region) Contains(b orb.Bound) bool {
	return b.Min[0] >= r.MinLon &&
		b.Max[0] <= r.MaxLon &&
		b.Min[1] >= r.MinLat &&
		b.Max[1] <= r.MaxLat
}

// Valid reports whether the region's edges are ordered.
func (r Region) Valid() bool {
	return r.MinLon < r.MaxLon && r.MinLat < r.MaxLat
}
