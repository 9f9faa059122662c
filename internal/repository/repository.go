package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

// Entry is one cached imagery result: the selected scene and its NDVI raster
// over the AOI grid.
type Entry struct {
	Key       string
	Scene     models.Scene
	NDVI      *models.Raster
	CreatedAt time.Time
}

// SceneCache stores imagery results. Get returns (nil, nil) on a miss or
// when the entry has expired.
type SceneCache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Close() error
}

// Key identifies an imagery request.
func Key(collection string, aoi models.AOI, start, end string, scale float64) string {
	return fmt.Sprintf("%s|%.6f,%.6f|%g|%s..%s|%g",
		collection, aoi.Center.Latitude, aoi.Center.Longitude, aoi.Buffer, start, end, scale)
}
