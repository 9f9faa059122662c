package ndvi

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

// Summarize collects the unmasked values whose pixel centers lie inside
// polygon. A polygon that covers no unmasked pixel yields Pixels == 0.
func Summarize(name string, r *models.Raster, polygon orb.Polygon) (models.ParkSummary, error) {
	summary := models.ParkSummary{Name: name}

	bound := polygon.Bound()
	var data stats.Float64Data
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.At(x, y)
			if math.IsNaN(v) {
				continue
			}
			p := r.PixelCenter(x, y)
			if !bound.Contains(p) || !planar.PolygonContains(polygon, p) {
				continue
			}
			data = append(data, v)
		}
	}

	summary.Pixels = len(data)
	if len(data) == 0 {
		return summary, nil
	}

	var err error
	if summary.Mean, err = data.Mean(); err != nil {
		return summary, fmt.Errorf("mean: %w", err)
	}
	if summary.Median, err = data.Median(); err != nil {
		return summary, fmt.Errorf("median: %w", err)
	}
	if summary.Min, err = data.Min(); err != nil {
		return summary, fmt.Errorf("min: %w", err)
	}
	if summary.Max, err = data.Max(); err != nil {
		return summary, fmt.Errorf("max: %w", err)
	}
	if summary.StdDev, err = data.StandardDeviation(); err != nil {
		return summary, fmt.Errorf("stddev: %w", err)
	}
	return summary, nil
}
