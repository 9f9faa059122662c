package webmap

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

type TileLayer struct {
	Title       string
	URL         string
	Attribution string
	MaxZoom     int
}

func OpenStreetMap() *TileLayer {
	return &TileLayer{
		Title:       "OpenStreetMap",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		MaxZoom:     19,
	}
}

func GoogleSatellite() *TileLayer {
	return &TileLayer{
		Title:       "Google Satellite",
		URL:         "https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}",
		Attribution: "Google Satellite",
		MaxZoom:     25,
	}
}

func (t *TileLayer) Name() string    { return t.Title }
func (t *TileLayer) Kind() LayerKind { return KindTile }

func (t *TileLayer) script() (string, error) {
	opts, err := json.Marshal(map[string]any{
		"attribution": t.Attribution,
		"maxZoom":     t.MaxZoom,
	})
	if err != nil {
		return "", err
	}
	u, err := json.Marshal(t.URL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("L.tileLayer(%s, %s)", u, opts), nil
}

// GeoJSONLayer draws feature outlines. The stroke color of each feature is
// read from the ColorProperty property.
type GeoJSONLayer struct {
	Title         string
	Data          *geojson.FeatureCollection
	ColorProperty string
	DefaultColor  string
	Weight        float64
	FillOpacity   float64
	TooltipField  string
	TooltipAlias  string
}

func (g *GeoJSONLayer) Name() string    { return g.Title }
func (g *GeoJSONLayer) Kind() LayerKind { return KindVector }

func (g *GeoJSONLayer) script() (string, error) {
	data, err := g.Data.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("error encoding features: %w", err)
	}
	cfg, err := json.Marshal(map[string]any{
		"colorProperty": g.ColorProperty,
		"defaultColor":  g.DefaultColor,
		"weight":        g.Weight,
		"fillOpacity":   g.FillOpacity,
		"tooltipField":  g.TooltipField,
		"tooltipAlias":  g.TooltipAlias,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("outlineLayer(%s, %s)", data, cfg), nil
}

// ImageLayer overlays a rendered raster on its geographic bounds.
type ImageLayer struct {
	Title   string
	URL     string
	Bounds  models.Bounds
	Opacity float64
	Min     float64
	Max     float64
	Palette []string
}

func (i *ImageLayer) Name() string    { return i.Title }
func (i *ImageLayer) Kind() LayerKind { return KindRaster }

func (i *ImageLayer) script() (string, error) {
	u, err := json.Marshal(i.URL)
	if err != nil {
		return "", err
	}
	bounds, err := json.Marshal(i.Bounds.Leaflet())
	if err != nil {
		return "", err
	}
	opts, err := json.Marshal(map[string]any{
		"opacity":     i.Opacity,
		"interactive": false,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("L.imageOverlay(%s, %s, %s)", u, bounds, opts), nil
}
