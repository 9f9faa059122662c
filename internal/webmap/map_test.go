package webmap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

var ankara = models.Coordinates{Latitude: 39.9052, Longitude: 32.8112}

func ndviLayer(url string) *ImageLayer {
	return &ImageLayer{
		Title:   "NDVI (Inside Parks)",
		URL:     url,
		Bounds:  models.Bounds{MinLon: 32.79, MinLat: 39.88, MaxLon: 32.83, MaxLat: 39.92},
		Opacity: 1,
		Min:     0,
		Max:     0.8,
		Palette: []string{"FFFFFF", "004C00"},
	}
}

func names(m *Map) []string {
	var out []string
	for _, l := range m.Layers() {
		out = append(out, l.Name())
	}
	return out
}

func TestNew_HasDefaultBasemap(t *testing.T) {
	m := New(ankara, 12)
	if got := names(m); len(got) != 1 || got[0] != "OpenStreetMap" {
		t.Errorf("expected default OpenStreetMap layer, got %v", got)
	}

	m.ClearLayers()
	if len(m.Layers()) != 0 {
		t.Errorf("expected no layers after ClearLayers, got %v", names(m))
	}
}

func TestAddLayer_ReplacesByName(t *testing.T) {
	m := New(ankara, 12)
	m.ClearLayers()
	m.AddLayer(GoogleSatellite())

	for i := 0; i < 5; i++ {
		m.AddLayer(ndviLayer("/layers/ndvi.png"))
	}

	count := 0
	for _, l := range m.Layers() {
		if l.Name() == "NDVI (Inside Parks)" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one NDVI layer, got %d", count)
	}
	if len(m.Layers()) != 2 {
		t.Errorf("expected 2 layers, got %v", names(m))
	}
}

func TestAddLayer_ReplacementMovesToTop(t *testing.T) {
	m := New(ankara, 12)
	m.ClearLayers()
	m.AddLayer(GoogleSatellite())
	m.AddLayer(ndviLayer("/unmasked.png"))
	m.AddLayer(&GeoJSONLayer{Title: "Urban Parks", Data: geojson.NewFeatureCollection()})
	m.AddLayer(ndviLayer("/masked.png"))

	got := names(m)
	want := []string{"Google Satellite", "Urban Parks", "NDVI (Inside Parks)"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected order %v, got %v", want, got)
	}

	l, ok := m.Layer("NDVI (Inside Parks)")
	if !ok || l.(*ImageLayer).URL != "/masked.png" {
		t.Errorf("expected the latest NDVI layer to win")
	}
}

func TestRemoveLayer(t *testing.T) {
	m := New(ankara, 12)
	if !m.RemoveLayer("OpenStreetMap") {
		t.Error("expected RemoveLayer to report removal")
	}
	if m.RemoveLayer("OpenStreetMap") {
		t.Error("expected second RemoveLayer to report nothing removed")
	}
}

func TestLayers_ReturnsCopy(t *testing.T) {
	m := New(ankara, 12)
	layers := m.Layers()
	layers[0] = GoogleSatellite()

	if m.Layers()[0].Name() != "OpenStreetMap" {
		t.Error("mutating Layers() result must not change the map")
	}
}

func TestRender(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Polygon{orb.Ring{{32.80, 39.90}, {32.81, 39.90}, {32.81, 39.91}, {32.80, 39.90}}})
	f.Properties["name"] = "<b>Square</b> Park"
	f.Properties["color"] = "green"
	fc.Append(f)

	m := New(ankara, 12)
	m.ClearLayers()
	m.Height = 1000
	m.LayerControl = true
	m.AddLayer(GoogleSatellite())
	m.AddLayer(&GeoJSONLayer{
		Title:         "Urban Parks",
		Data:          fc,
		ColorProperty: "color",
		DefaultColor:  "blue",
		Weight:        3,
		TooltipField:  "name",
		TooltipAlias:  "Park: ",
	})
	m.AddLayer(ndviLayer("/layers/ndvi.png"))

	var buf bytes.Buffer
	if err := m.Render(&buf, "Park NDVI"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	page := buf.String()

	for _, want := range []string{
		"height: 1000px",
		"L.tileLayer(",
		"mt1.google.com",
		"outlineLayer(",
		"L.imageOverlay(",
		"/layers/ndvi.png",
		"L.control.layers(",
		"overflow: hidden",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}

	// Feature properties are JSON-escaped inside the script.
	if strings.Contains(page, "<b>Square</b>") {
		t.Error("expected park names to be escaped")
	}

	tile := strings.Index(page, "L.tileLayer(")
	outline := strings.Index(page, "outlineLayer({")
	overlay := strings.Index(page, "L.imageOverlay(")
	if !(tile < outline && outline < overlay) {
		t.Errorf("expected layers rendered in insertion order, got %d %d %d", tile, outline, overlay)
	}
}
