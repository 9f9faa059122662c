package models

import (
	"encoding/json"
	"testing"
)

func TestAOI_BoundsAreCenterPlusMinusBuffer(t *testing.T) {
	center := Coordinates{Latitude: 39.9052, Longitude: 32.8112}
	aoi, err := NewAOI(center, 0.02)
	if err != nil {
		t.Fatalf("NewAOI failed: %v", err)
	}

	b := aoi.Bounds()
	if b.MinLon != center.Longitude-0.02 || b.MaxLon != center.Longitude+0.02 {
		t.Errorf("unexpected lon bounds %v..%v", b.MinLon, b.MaxLon)
	}
	if b.MinLat != center.Latitude-0.02 || b.MaxLat != center.Latitude+0.02 {
		t.Errorf("unexpected lat bounds %v..%v", b.MinLat, b.MaxLat)
	}

	ring := aoi.Rectangle()[0]
	if len(ring) != 5 || ring[0] != ring[4] {
		t.Fatalf("expected closed ring of 5 points, got %v", ring)
	}
	corners := map[[2]float64]bool{
		{b.MinLon, b.MinLat}: true,
		{b.MaxLon, b.MinLat}: true,
		{b.MaxLon, b.MaxLat}: true,
		{b.MinLon, b.MaxLat}: true,
	}
	for _, p := range ring[:4] {
		if !corners[[2]float64{p[0], p[1]}] {
			t.Errorf("unexpected corner %v", p)
		}
	}
}

func TestNewAOI_Invalid(t *testing.T) {
	if _, err := NewAOI(Coordinates{Latitude: 10, Longitude: 10}, 0); err == nil {
		t.Error("expected error for zero buffer")
	}
	if _, err := NewAOI(Coordinates{Latitude: 95, Longitude: 10}, 0.1); err == nil {
		t.Error("expected error for latitude out of range")
	}
}

func TestAOI_GeoJSON(t *testing.T) {
	aoi, _ := NewAOI(Coordinates{Latitude: 1, Longitude: 2}, 0.5)

	data, err := aoi.GeoJSON()
	if err != nil {
		t.Fatalf("GeoJSON failed: %v", err)
	}

	var g struct {
		Type        string         `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("invalid GeoJSON: %v", err)
	}
	if g.Type != "Polygon" {
		t.Errorf("expected Polygon, got %s", g.Type)
	}
	if got := g.Coordinates[0][0]; got[0] != 1.5 || got[1] != 0.5 {
		t.Errorf("expected first corner [1.5 0.5], got %v", got)
	}
}

func TestRaster_PixelCenter(t *testing.T) {
	r, err := NewRaster("B8", 4, 2, Bounds{MinLon: 0, MinLat: 0, MaxLon: 4, MaxLat: 2})
	if err != nil {
		t.Fatalf("NewRaster failed: %v", err)
	}

	p := r.PixelCenter(0, 0)
	if p[0] != 0.5 || p[1] != 1.5 {
		t.Errorf("expected top-left center (0.5, 1.5), got %v", p)
	}
	p = r.PixelCenter(3, 1)
	if p[0] != 3.5 || p[1] != 0.5 {
		t.Errorf("expected bottom-right center (3.5, 0.5), got %v", p)
	}
}
