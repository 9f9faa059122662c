package parks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/serjvanilla/go-overpass"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

type querier interface {
	Query(query string) (overpass.Result, error)
}

// OverpassSource looks up leisure=park ways inside the AOI on OpenStreetMap.
type OverpassSource struct {
	client  querier
	colors  *ColorPicker
	timeout time.Duration
}

func NewOverpassSource(endpoint string, timeout time.Duration, colors *ColorPicker) *OverpassSource {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 1, httpClient)
	return &OverpassSource{
		client:  &client,
		colors:  colors,
		timeout: timeout,
	}
}

func parkQuery(aoi models.AOI) string {
	return fmt.Sprintf(`
		[out:json];
		(
			way["leisure"="park"](%s);
		);
		out body;
		>;
		out skel qt;
	`, aoi.OverpassBBox())
}

func (s *OverpassSource) Parks(ctx context.Context, aoi models.AOI) ([]models.Park, error) {
	type queryResult struct {
		res overpass.Result
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The client has no context support; give up waiting on ctx instead.
	ch := make(chan queryResult, 1)
	go func() {
		res, err := s.client.Query(parkQuery(aoi))
		ch <- queryResult{res, err}
	}()

	var result overpass.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case qr := <-ch:
		if qr.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", qr.err)
		}
		result = qr.res
	}

	parks := convertWays(result, s.colors)
	if len(parks) == 0 {
		return nil, ErrNoParks
	}
	slog.Debug("loaded parks from overpass", "count", len(parks))
	return parks, nil
}

// convertWays keeps closed ways with at least three distinct nodes, ordered
// by way id so repeated loads produce the same list.
func convertWays(result overpass.Result, colors *ColorPicker) []models.Park {
	ids := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var parks []models.Park
	for _, id := range ids {
		way := result.Ways[id]
		if len(way.Nodes) < 4 || way.Nodes[0] != way.Nodes[len(way.Nodes)-1] {
			continue
		}

		ring := make(orb.Ring, 0, len(way.Nodes))
		for _, n := range way.Nodes {
			if n == nil {
				ring = nil
				break
			}
			ring = append(ring, orb.Point{n.Lon, n.Lat})
		}
		if ring == nil {
			continue
		}

		name := way.Tags["name"]
		if name == "" {
			name = "park " + strconv.FormatInt(way.ID, 10)
		}

		parks = append(parks, models.Park{
			Name:    name,
			Color:   colors.Pick(),
			Polygon: orb.Polygon{ring},
			Properties: map[string]string{
				"name":   name,
				"osm_id": strconv.FormatInt(way.ID, 10),
			},
		})
	}
	return parks
}
