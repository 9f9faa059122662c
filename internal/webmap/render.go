package webmap

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed page.html
var pageTemplate string

var page = template.Must(template.New("page").Parse(pageTemplate))

type layerView struct {
	Name    string
	Kind    LayerKind
	Overlay bool
	Script  template.JS
}

type legendView struct {
	Title    string
	Min      float64
	Max      float64
	Gradient template.CSS
}

type pageView struct {
	Title        string
	Lat          float64
	Lon          float64
	Zoom         int
	Height       int
	LayerControl bool
	Layers       []layerView
	Legends      []legendView
}

// Render writes the map as a full HTML page.
func (m *Map) Render(w io.Writer, title string) error {
	view := pageView{
		Title:        title,
		Lat:          m.Center.Latitude,
		Lon:          m.Center.Longitude,
		Zoom:         m.Zoom,
		Height:       m.Height,
		LayerControl: m.LayerControl,
	}

	for _, l := range m.layers {
		js, err := l.script()
		if err != nil {
			return fmt.Errorf("layer %q: %w", l.Name(), err)
		}
		view.Layers = append(view.Layers, layerView{
			Name:    l.Name(),
			Kind:    l.Kind(),
			Overlay: l.Kind() != KindTile,
			Script:  template.JS(js),
		})

		if img, ok := l.(*ImageLayer); ok && len(img.Palette) > 0 {
			view.Legends = append(view.Legends, legendView{
				Title:    img.Title,
				Min:      img.Min,
				Max:      img.Max,
				Gradient: gradient(img.Palette),
			})
		}
	}

	return page.Execute(w, view)
}

func gradient(palette []string) template.CSS {
	stops := make([]string, len(palette))
	for i, c := range palette {
		stops[i] = "#" + c
	}
	if len(stops) == 1 {
		stops = append(stops, stops[0])
	}
	return template.CSS("linear-gradient(to right, " + strings.Join(stops, ", ") + ")")
}
