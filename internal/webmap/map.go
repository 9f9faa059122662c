// Package webmap composes Leaflet maps out of named layers and renders them
// as a standalone HTML page.
package webmap

import (
	"github.com/mr1hm/go-park-ndvi/internal/models"
)

type LayerKind string

const (
	KindTile   LayerKind = "tile"
	KindVector LayerKind = "vector"
	KindRaster LayerKind = "raster"
)

type Layer interface {
	Name() string
	Kind() LayerKind
	// script returns a JavaScript expression that builds the Leaflet layer.
	script() (string, error)
}

// Map holds layers in insertion order; the last added layer draws on top.
// Layer names are unique.
type Map struct {
	Center       models.Coordinates
	Zoom         int
	Height       int
	LayerControl bool

	layers []Layer
}

func New(center models.Coordinates, zoom int) *Map {
	m := &Map{
		Center: center,
		Zoom:   zoom,
		Height: 600,
	}
	m.AddLayer(OpenStreetMap())
	return m
}

// AddLayer appends l, first removing any layer with the same name.
func (m *Map) AddLayer(l Layer) {
	m.RemoveLayer(l.Name())
	m.layers = append(m.layers, l)
}

func (m *Map) RemoveLayer(name string) bool {
	for i, l := range m.layers {
		if l.Name() == name {
			m.layers = append(m.layers[:i:i], m.layers[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Map) ClearLayers() {
	m.layers = nil
}

func (m *Map) Layer(name string) (Layer, bool) {
	for _, l := range m.layers {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}

func (m *Map) Layers() []Layer {
	out := make([]Layer, len(m.layers))
	copy(out, m.layers)
	return out
}
