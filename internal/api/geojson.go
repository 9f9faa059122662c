package api

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-park-ndvi/internal/dashboard"
)

const timeLayout = time.RFC3339

// toGeoJSON returns the park outlines with each park's NDVI summary attached.
// Parks without unmasked pixels carry null statistics.
func toGeoJSON(res *dashboard.Result) *geojson.FeatureCollection {
	fc := dashboard.ParksFeatureCollection(res.Parks)

	for i, f := range fc.Features {
		if i >= len(res.Summaries) {
			break
		}
		s := res.Summaries[i]
		f.Properties["ndvi_pixels"] = s.Pixels
		if s.Pixels == 0 {
			for _, k := range []string{"ndvi_mean", "ndvi_median", "ndvi_min", "ndvi_max", "ndvi_stddev"} {
				f.Properties[k] = nil
			}
			continue
		}
		f.Properties["ndvi_mean"] = finite(s.Mean)
		f.Properties["ndvi_median"] = finite(s.Median)
		f.Properties["ndvi_min"] = finite(s.Min)
		f.Properties["ndvi_max"] = finite(s.Max)
		f.Properties["ndvi_stddev"] = finite(s.StdDev)
	}
	return fc
}
