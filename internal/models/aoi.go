package models

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Bounds is a lon/lat rectangle in EPSG:4326.
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

func (b Bounds) Width() float64  { return b.MaxLon - b.MinLon }
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }

// Leaflet returns the bounds as [[south, west], [north, east]].
func (b Bounds) Leaflet() [2][2]float64 {
	return [2][2]float64{{b.MinLat, b.MinLon}, {b.MaxLat, b.MaxLon}}
}

// AOI is the area of interest: a rectangle of Buffer degrees around Center.
type AOI struct {
	Center Coordinates
	Buffer float64
}

func NewAOI(center Coordinates, buffer float64) (AOI, error) {
	if buffer <= 0 {
		return AOI{}, fmt.Errorf("buffer must be positive: %v", buffer)
	}
	if center.Latitude < -90 || center.Latitude > 90 || center.Longitude < -180 || center.Longitude > 180 {
		return AOI{}, fmt.Errorf("center out of range: %v, %v", center.Latitude, center.Longitude)
	}
	return AOI{Center: center, Buffer: buffer}, nil
}

func (a AOI) Bounds() Bounds {
	return Bounds{
		MinLon: a.Center.Longitude - a.Buffer,
		MinLat: a.Center.Latitude - a.Buffer,
		MaxLon: a.Center.Longitude + a.Buffer,
		MaxLat: a.Center.Latitude + a.Buffer,
	}
}

// Rectangle returns the AOI as a closed counter-clockwise ring.
func (a AOI) Rectangle() orb.Polygon {
	b := a.Bounds()
	return orb.Polygon{orb.Ring{
		{b.MinLon, b.MinLat},
		{b.MaxLon, b.MinLat},
		{b.MaxLon, b.MaxLat},
		{b.MinLon, b.MaxLat},
		{b.MinLon, b.MinLat},
	}}
}

// GeoJSON encodes the rectangle as a GeoJSON geometry object.
func (a AOI) GeoJSON() ([]byte, error) {
	return geojson.NewGeometry(a.Rectangle()).MarshalJSON()
}

// OverpassBBox formats the bounds as "south,west,north,east".
func (a AOI) OverpassBBox() string {
	b := a.Bounds()
	return fmt.Sprintf("%f,%f,%f,%f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}
