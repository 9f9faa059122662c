package ndvi

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

// DefaultPalette runs from bare soil to dense vegetation.
var DefaultPalette = []string{
	"FFFFFF", "CE7E45", "DF923D", "F1B555", "FCD163",
	"99B718", "74A901", "66A000", "529400", "3E8601",
	"207401", "056201", "004C00",
}

type VisParams struct {
	Min     float64
	Max     float64
	Palette []string
}

func DefaultVisParams() VisParams {
	return VisParams{Min: 0.0, Max: 0.8, Palette: DefaultPalette}
}

func (v VisParams) colors() ([]color.NRGBA, error) {
	if len(v.Palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if v.Max <= v.Min {
		return nil, fmt.Errorf("invalid range [%v, %v]", v.Min, v.Max)
	}
	out := make([]color.NRGBA, len(v.Palette))
	for i, h := range v.Palette {
		b, err := hex.DecodeString(h)
		if err != nil || len(b) != 3 {
			return nil, fmt.Errorf("invalid palette color %q", h)
		}
		out[i] = color.NRGBA{R: b[0], G: b[1], B: b[2], A: 0xff}
	}
	return out, nil
}

// colorAt maps v onto the palette. Values outside [lo, hi] take the end
// colors; the raster itself is not modified.
func colorAt(stops []color.NRGBA, lo, hi, v float64) color.NRGBA {
	if len(stops) == 1 {
		return stops[0]
	}
	t := (v - lo) / (hi - lo)
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(stops)-1)
	i := int(math.Floor(pos))
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	f := pos - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
	}
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 0xff}
}

// Visualize renders the raster; masked pixels are fully transparent.
func Visualize(r *models.Raster, vis VisParams) (*image.NRGBA, error) {
	stops, err := vis.colors()
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.At(x, y)
			if math.IsNaN(v) {
				continue
			}
			img.SetNRGBA(x, y, colorAt(stops, vis.Min, vis.Max, v))
		}
	}
	return img, nil
}

func EncodePNG(r *models.Raster, vis VisParams) ([]byte, error) {
	img, err := Visualize(r, vis)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("error encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
