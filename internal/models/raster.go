package models

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Raster is a single band grid over Bounds, row-major and north-up.
// NaN marks a masked pixel.
type Raster struct {
	Band   string
	Width  int
	Height int
	Bounds Bounds
	Data   []float64
}

func NewRaster(band string, width, height int, bounds Bounds) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	return &Raster{
		Band:   band,
		Width:  width,
		Height: height,
		Bounds: bounds,
		Data:   make([]float64, width*height),
	}, nil
}

func (r *Raster) At(x, y int) float64 {
	return r.Data[y*r.Width+x]
}

func (r *Raster) Set(x, y int, v float64) {
	r.Data[y*r.Width+x] = v
}

func (r *Raster) Masked(x, y int) bool {
	return math.IsNaN(r.At(x, y))
}

// PixelCenter returns the lon/lat of the center of pixel (x, y).
func (r *Raster) PixelCenter(x, y int) orb.Point {
	dx := r.Bounds.Width() / float64(r.Width)
	dy := r.Bounds.Height() / float64(r.Height)
	return orb.Point{
		r.Bounds.MinLon + (float64(x)+0.5)*dx,
		r.Bounds.MaxLat - (float64(y)+0.5)*dy,
	}
}

// SameGrid reports whether o covers the same pixels as r.
func (r *Raster) SameGrid(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height && r.Bounds == o.Bounds
}

func (r *Raster) Clone(band string) *Raster {
	data := make([]float64, len(r.Data))
	copy(data, r.Data)
	return &Raster{
		Band:   band,
		Width:  r.Width,
		Height: r.Height,
		Bounds: r.Bounds,
		Data:   data,
	}
}
