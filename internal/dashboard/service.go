// Package dashboard runs the imagery, overlay and composition stages that
// produce the park NDVI map.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-park-ndvi/internal/config"
	"github.com/mr1hm/go-park-ndvi/internal/events"
	"github.com/mr1hm/go-park-ndvi/internal/models"
	"github.com/mr1hm/go-park-ndvi/internal/ndvi"
	"github.com/mr1hm/go-park-ndvi/internal/parks"
	"github.com/mr1hm/go-park-ndvi/internal/repository"
	"github.com/mr1hm/go-park-ndvi/internal/webmap"
)

const (
	ParksLayer = "Urban Parks"
	NDVILayer  = "NDVI (Inside Parks)"

	MaskedImagePath = "/layers/ndvi.png"
	FullImagePath   = "/layers/ndvi-full.png"
)

// ImageSource selects a scene and fetches its bands.
type ImageSource interface {
	LeastCloudy(ctx context.Context, aoi models.AOI, start, end string) (*models.Scene, error)
	FetchBands(ctx context.Context, scene *models.Scene, aoi models.AOI, scale float64, bands ...string) (map[string]*models.Raster, error)
}

// Result is one complete render.
type Result struct {
	AOI        models.AOI
	Scene      models.Scene
	Parks      []models.Park
	Summaries  []models.ParkSummary
	Footprint  *parks.Footprint
	Map        *webmap.Map
	MaskedPNG  []byte
	FullPNG    []byte
	RenderedAt time.Time
	FromCache  bool
}

// Event summarizes the result for render subscribers.
func (r *Result) Event() events.Rendered {
	return events.Rendered{
		SceneID:    r.Scene.ID,
		Parks:      len(r.Parks),
		FromCache:  r.FromCache,
		RenderedAt: r.RenderedAt,
	}
}

type Service struct {
	cfg    *config.Config
	aoi    models.AOI
	vis    ndvi.VisParams
	images ImageSource
	parks  parks.Source
	cache  repository.SceneCache // nil disables caching

	renderMu sync.Mutex

	mu   sync.RWMutex
	last *Result
}

func NewService(cfg *config.Config, images ImageSource, parkSource parks.Source, cache repository.SceneCache) (*Service, error) {
	aoi, err := models.NewAOI(models.Coordinates{
		Latitude:  cfg.Imagery.CenterLat,
		Longitude: cfg.Imagery.CenterLon,
	}, cfg.Imagery.Buffer)
	if err != nil {
		return nil, fmt.Errorf("invalid area of interest: %w", err)
	}

	return &Service{
		cfg:    cfg,
		aoi:    aoi,
		vis:    ndvi.DefaultVisParams(),
		images: images,
		parks:  parkSource,
		cache:  cache,
	}, nil
}

func (s *Service) AOI() models.AOI { return s.aoi }

// Current returns the last successful render, rendering first if there is none.
// A caller that arrives during an in-flight render waits for it and reuses
// its result.
func (s *Service) Current(ctx context.Context) (*Result, error) {
	if last := s.latest(); last != nil {
		return last, nil
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if last := s.latest(); last != nil {
		return last, nil
	}
	return s.render(ctx)
}

func (s *Service) latest() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Render runs every stage and publishes the result. Concurrent calls are
// serialized.
func (s *Service) Render(ctx context.Context) (*Result, error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.render(ctx)
}

// render must be called with renderMu held.
func (s *Service) render(ctx context.Context) (*Result, error) {
	start := time.Now()

	scene, raster, fromCache, err := s.imagery(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		AOI:        s.aoi,
		Scene:      *scene,
		RenderedAt: time.Now(),
		FromCache:  fromCache,
	}

	if res.FullPNG, err = ndvi.EncodePNG(raster, s.vis); err != nil {
		return nil, err
	}

	m := webmap.New(s.aoi.Center, s.cfg.Map.Zoom)
	m.Height = s.cfg.Map.Height
	m.ClearLayers()
	m.AddLayer(webmap.GoogleSatellite())
	m.AddLayer(s.ndviLayer(FullImagePath, res.RenderedAt))

	res.Parks, err = s.parks.Parks(ctx, s.aoi)
	if err != nil {
		return nil, fmt.Errorf("error loading parks: %w", err)
	}
	m.AddLayer(&webmap.GeoJSONLayer{
		Title:         ParksLayer,
		Data:          ParksFeatureCollection(res.Parks),
		ColorProperty: "color",
		DefaultColor:  "blue",
		Weight:        3,
		FillOpacity:   0,
		TooltipField:  "name",
		TooltipAlias:  "Park: ",
	})

	res.Footprint, err = parks.Union(res.Parks)
	if err != nil {
		return nil, fmt.Errorf("error merging parks: %w", err)
	}
	masked := ndvi.Mask(raster, res.Footprint)
	if res.MaskedPNG, err = ndvi.EncodePNG(masked, s.vis); err != nil {
		return nil, err
	}
	m.AddLayer(s.ndviLayer(MaskedImagePath, res.RenderedAt))
	m.LayerControl = true
	res.Map = m

	for _, p := range res.Parks {
		summary, err := ndvi.Summarize(p.Name, masked, p.Polygon)
		if err != nil {
			return nil, fmt.Errorf("error summarizing park %q: %w", p.Name, err)
		}
		res.Summaries = append(res.Summaries, summary)
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	slog.Info("map rendered",
		"scene", scene.ID,
		"cloudy_pct", scene.CloudyPixelPercentage,
		"parks", len(res.Parks),
		"from_cache", fromCache,
		"duration", time.Since(start),
	)
	return res, nil
}

// imagery returns the least cloudy scene and its NDVI raster, from the cache
// when possible.
func (s *Service) imagery(ctx context.Context) (*models.Scene, *models.Raster, bool, error) {
	img := s.cfg.Imagery
	key := repository.Key(img.Collection, s.aoi, img.StartDate, img.EndDate, img.PixelScale)

	if s.cache != nil {
		entry, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("scene cache read failed", "key", key, "error", err)
		} else if entry != nil {
			return &entry.Scene, entry.NDVI, true, nil
		}
	}

	scene, err := s.images.LeastCloudy(ctx, s.aoi, img.StartDate, img.EndDate)
	if err != nil {
		return nil, nil, false, fmt.Errorf("error selecting scene: %w", err)
	}

	bands, err := s.images.FetchBands(ctx, scene, s.aoi, img.PixelScale, ndvi.NIR, ndvi.Red)
	if err != nil {
		return nil, nil, false, fmt.Errorf("error fetching bands for %s: %w", scene.ID, err)
	}

	raster, err := ndvi.Compute(bands)
	if err != nil {
		return nil, nil, false, fmt.Errorf("error computing NDVI: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, &repository.Entry{Key: key, Scene: *scene, NDVI: raster}); err != nil {
			slog.Warn("scene cache write failed", "key", key, "error", err)
		}
	}

	return scene, raster, false, nil
}

func (s *Service) ndviLayer(path string, version time.Time) *webmap.ImageLayer {
	return &webmap.ImageLayer{
		Title:   NDVILayer,
		URL:     fmt.Sprintf("%s?v=%d", path, version.UnixMilli()),
		Bounds:  s.aoi.Bounds(),
		Opacity: 1,
		Min:     s.vis.Min,
		Max:     s.vis.Max,
		Palette: s.vis.Palette,
	}
}

// ParksFeatureCollection converts parks into GeoJSON features carrying the
// park properties plus name and color.
func ParksFeatureCollection(list []models.Park) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range list {
		f := geojson.NewFeature(p.Polygon)
		for k, v := range p.Properties {
			f.Properties[k] = v
		}
		f.Properties["name"] = p.Name
		f.Properties["color"] = p.Color
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"crs": map[string]any{"type": "name", "properties": map[string]string{"name": models.CRS}},
	}
	return fc
}
