package parks

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

// Footprint is the merged area of a set of parks.
type Footprint struct {
	geometry orb.Geometry
	bound    orb.Bound
}

// Union merges all park polygons into one footprint.
func Union(parks []models.Park) (*Footprint, error) {
	if len(parks) == 0 {
		return nil, ErrNoParks
	}

	var acc geom.Geometry
	for i, p := range parks {
		g, err := geom.UnmarshalWKT(wkt.MarshalString(p.Polygon))
		if err != nil {
			return nil, fmt.Errorf("invalid polygon for park %q: %w", p.Name, err)
		}
		if i == 0 {
			acc = g
			continue
		}
		if acc, err = geom.Union(acc, g); err != nil {
			return nil, fmt.Errorf("error merging park %q: %w", p.Name, err)
		}
	}

	raw, err := acc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("error encoding union: %w", err)
	}
	gj, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("error decoding union: %w", err)
	}

	g := gj.Geometry()
	return &Footprint{geometry: g, bound: g.Bound()}, nil
}

func (f *Footprint) Geometry() orb.Geometry { return f.geometry }

func (f *Footprint) Contains(p orb.Point) bool {
	if !f.bound.Contains(p) {
		return false
	}
	return contains(f.geometry, p)
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Collection:
		for _, sub := range g {
			if contains(sub, p) {
				return true
			}
		}
	}
	return false
}
