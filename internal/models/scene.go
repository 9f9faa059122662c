package models

import "time"

// Scene is a remote handle to one image of a collection. Pixels are never
// stored on it; they are fetched per band into a Raster.
type Scene struct {
	ID                    string    // e.g. "COPERNICUS/S2_SR_HARMONIZED/20230612T083601_..."
	Name                  string    // full asset name, "projects/earthengine-public/assets/..."
	Collection            string
	StartTime             time.Time // acquisition time
	CloudyPixelPercentage float64
}
