package parks

import (
	"context"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

// Source provides the park polygons for an area of interest.
type Source interface {
	Parks(ctx context.Context, aoi models.AOI) ([]models.Park, error)
}

// CSVSource reads the same file on every call; the AOI is ignored.
type CSVSource struct {
	Path   string
	Colors *ColorPicker
}

func (s *CSVSource) Parks(ctx context.Context, aoi models.AOI) ([]models.Park, error) {
	return LoadCSV(s.Path, s.Colors)
}
