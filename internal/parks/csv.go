package parks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

var ErrNoParks = errors.New("no park polygons")

const (
	polygonColumn = "polygon"
	nameColumn    = "name"
)

// LoadCSV reads park polygons from a CSV file with at least the columns
// "polygon" and "name". Extra columns are kept as properties.
func LoadCSV(path string, colors *ColorPicker) ([]models.Park, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening polygons file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f, colors)
}

func ReadCSV(r io.Reader, colors *ColorPicker) ([]models.Park, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	// Spreadsheet exports often start with a UTF-8 byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	polyIdx, ok := cols[polygonColumn]
	if !ok {
		return nil, fmt.Errorf("missing %q column", polygonColumn)
	}
	nameIdx, ok := cols[nameColumn]
	if !ok {
		return nil, fmt.Errorf("missing %q column", nameColumn)
	}

	var parks []models.Park
	for row := 1; ; row++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", row, err)
		}

		poly, err := ParsePolygon(rec[polyIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		props := make(map[string]string, len(header))
		for i, h := range header {
			if i != polyIdx && i < len(rec) {
				props[h] = rec[i]
			}
		}

		parks = append(parks, models.Park{
			Name:       rec[nameIdx],
			Color:      colors.Pick(),
			Polygon:    poly,
			Properties: props,
		})
	}

	if len(parks) == 0 {
		return nil, ErrNoParks
	}
	return parks, nil
}

// ParsePolygon reads a coordinate-list literal such as
// "[(32.80, 39.90), (32.81, 39.90), (32.81, 39.91)]". Tuples and lists are
// both accepted; each position is (lon, lat). The ring is closed if needed.
func ParsePolygon(s string) (orb.Polygon, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty polygon literal")
	}

	lit, err := parseLiteral(s)
	if err != nil {
		return nil, fmt.Errorf("malformed polygon literal %q: %w", s, err)
	}
	if !lit.seq {
		return nil, fmt.Errorf("malformed polygon literal %q: not a list", s)
	}
	if len(lit.items) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 positions, got %d", len(lit.items))
	}

	ring := make(orb.Ring, 0, len(lit.items)+1)
	for i, pos := range lit.items {
		if !pos.seq || len(pos.items) != 2 || pos.items[0].seq || pos.items[1].seq {
			return nil, fmt.Errorf("position %d is not a (lon, lat) pair", i)
		}
		ring = append(ring, orb.Point{pos.items[0].num, pos.items[1].num})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, fmt.Errorf("polygon needs at least 3 distinct positions")
	}

	return orb.Polygon{ring}, nil
}
