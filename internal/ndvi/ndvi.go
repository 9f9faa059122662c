// Package ndvi computes normalized difference indices on fetched band
// rasters and prepares them for display.
package ndvi

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

const (
	Band = "NDVI"
	NIR  = "B8"
	Red  = "B4"
)

// Region is anything that can answer point-in-geometry queries.
type Region interface {
	Contains(p orb.Point) bool
}

// NormalizedDifference returns (first - second) / (first + second) labelled
// NDVI. A pixel is masked when either input is masked or negative, or when
// the sum is zero, so every unmasked value lies in [-1, 1].
func NormalizedDifference(first, second *models.Raster) (*models.Raster, error) {
	if !first.SameGrid(second) {
		return nil, fmt.Errorf("band grids differ: %dx%d vs %dx%d", first.Width, first.Height, second.Width, second.Height)
	}

	out := first.Clone(Band)
	for i := range out.Data {
		a, b := first.Data[i], second.Data[i]
		sum := a + b
		if math.IsNaN(a) || math.IsNaN(b) || a < 0 || b < 0 || sum == 0 {
			out.Data[i] = math.NaN()
			continue
		}
		out.Data[i] = (a - b) / sum
	}
	return out, nil
}

// Compute takes the NIR and red bands out of a fetched band set.
func Compute(bands map[string]*models.Raster) (*models.Raster, error) {
	nir, ok := bands[NIR]
	if !ok {
		return nil, fmt.Errorf("missing band %s", NIR)
	}
	red, ok := bands[Red]
	if !ok {
		return nil, fmt.Errorf("missing band %s", Red)
	}
	return NormalizedDifference(nir, red)
}

// Mask keeps pixels whose centers fall inside region and masks the rest.
// Values inside are copied unchanged.
func Mask(r *models.Raster, region Region) *models.Raster {
	out := r.Clone(r.Band)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if !region.Contains(r.PixelCenter(x, y)) {
				out.Set(x, y, math.NaN())
			}
		}
	}
	return out
}
