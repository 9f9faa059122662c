package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/tiff"

	"github.com/mr1hm/go-park-ndvi/internal/config"
	"github.com/mr1hm/go-park-ndvi/internal/models"
	"github.com/mr1hm/go-park-ndvi/internal/worker"
)

const (
	CloudProperty = "CLOUDY_PIXEL_PERCENTAGE"
	publicProject = "projects/earthengine-public"
	pageSize      = 1000
)

var ErrNoImages = errors.New("no images match the area and date range")

type Client struct {
	baseURL    string
	collection string
	workers    int
	httpClient *http.Client
}

func NewClient(session *Session, baseURL, collection string, workers int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		workers:    workers,
		httpClient: session.HTTPClient,
	}
}

type listImagesResponse struct {
	Images        []eeImage `json:"images"`
	NextPageToken string    `json:"nextPageToken"`
}

type eeImage struct {
	Name       string         `json:"name"`
	ID         string         `json:"id"`
	StartTime  time.Time      `json:"startTime"`
	Properties map[string]any `json:"properties"`
}

func (img eeImage) cloudiness() (float64, bool) {
	v, ok := img.Properties[CloudProperty].(float64)
	return v, ok
}

// LeastCloudy filters the collection by the AOI and [start, end), sorts by
// cloud percentage and returns the first image.
func (c *Client) LeastCloudy(ctx context.Context, aoi models.AOI, start, end string) (*models.Scene, error) {
	startTime, err := time.Parse(config.DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endTime, err := time.Parse(config.DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("end date %s is not after start date %s", end, start)
	}

	region, err := aoi.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("error encoding region: %w", err)
	}

	var images []eeImage
	pageToken := ""
	for {
		page, err := c.listImages(ctx, startTime, endTime, string(region), pageToken)
		if err != nil {
			return nil, err
		}
		images = append(images, page.Images...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if len(images) == 0 {
		return nil, ErrNoImages
	}

	// Images without the property sort last.
	sort.SliceStable(images, func(i, j int) bool {
		ci, okI := images[i].cloudiness()
		cj, okJ := images[j].cloudiness()
		if okI != okJ {
			return okI
		}
		return ci < cj
	})

	best := images[0]
	cloud, ok := best.cloudiness()
	if !ok {
		cloud = math.NaN()
	}

	slog.Debug("selected scene", "id", best.ID, "cloudy_pct", cloud, "candidates", len(images))

	return &models.Scene{
		ID:                    best.ID,
		Name:                  best.Name,
		Collection:            c.collection,
		StartTime:             best.StartTime,
		CloudyPixelPercentage: cloud,
	}, nil
}

func (c *Client) listImages(ctx context.Context, start, end time.Time, region, pageToken string) (*listImagesResponse, error) {
	q := url.Values{}
	q.Set("startTime", start.UTC().Format(time.RFC3339))
	q.Set("endTime", end.UTC().Format(time.RFC3339))
	q.Set("region", region)
	q.Set("pageSize", fmt.Sprint(pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	u := fmt.Sprintf("%s/v1/%s/assets/%s:listImages?%s", c.baseURL, publicProject, c.collection, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var data listImagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return &data, nil
}

// Grid returns the pixel dimensions covering the AOI at scale degrees per pixel.
func Grid(aoi models.AOI, scale float64) (width, height int) {
	b := aoi.Bounds()
	width = int(math.Max(1, math.Round(b.Width()/scale)))
	height = int(math.Max(1, math.Round(b.Height()/scale)))
	return width, height
}

type pixelsRequest struct {
	FileFormat string   `json:"fileFormat"`
	BandIDs    []string `json:"bandIds"`
	Grid       gridSpec `json:"grid"`
}

type gridSpec struct {
	Dimensions      dimensions      `json:"dimensions"`
	AffineTransform affineTransform `json:"affineTransform"`
	CRSCode         string          `json:"crsCode"`
}

type dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type affineTransform struct {
	ScaleX     float64 `json:"scaleX"`
	ShearX     float64 `json:"shearX"`
	TranslateX float64 `json:"translateX"`
	ShearY     float64 `json:"shearY"`
	ScaleY     float64 `json:"scaleY"`
	TranslateY float64 `json:"translateY"`
}

// FetchBands downloads each band of scene over the AOI grid, in parallel.
func (c *Client) FetchBands(ctx context.Context, scene *models.Scene, aoi models.AOI, scale float64, bands ...string) (map[string]*models.Raster, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("no bands requested")
	}

	var (
		mu      sync.Mutex
		rasters = make(map[string]*models.Raster, len(bands))
	)

	processor := func(ctx context.Context, job worker.Job) error {
		band := job.(string)
		r, err := c.fetchBand(ctx, scene, aoi, scale, band)
		if err != nil {
			return fmt.Errorf("band %s: %w", band, err)
		}
		mu.Lock()
		rasters[band] = r
		mu.Unlock()
		return nil
	}

	pool := worker.NewWorkerPool(min(c.workers, len(bands)), len(bands), processor)
	pool.Start(ctx)
	for _, b := range bands {
		pool.Submit(b)
	}
	if err := pool.Stop(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return rasters, nil
}

func (c *Client) fetchBand(ctx context.Context, scene *models.Scene, aoi models.AOI, scale float64, band string) (*models.Raster, error) {
	width, height := Grid(aoi, scale)
	b := aoi.Bounds()

	body, err := json.Marshal(pixelsRequest{
		FileFormat: "GEO_TIFF",
		BandIDs:    []string{band},
		Grid: gridSpec{
			Dimensions: dimensions{Width: width, Height: height},
			AffineTransform: affineTransform{
				ScaleX:     b.Width() / float64(width),
				TranslateX: b.MinLon,
				ScaleY:     -b.Height() / float64(height),
				TranslateY: b.MaxLat,
			},
			CRSCode: models.CRS,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/%s:getPixels", c.baseURL, scene.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	img, err := tiff.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error decoding GeoTIFF: %w", err)
	}

	return toRaster(img, band, width, height, b)
}

func toRaster(img image.Image, band string, width, height int, bounds models.Bounds) (*models.Raster, error) {
	rect := img.Bounds()
	if rect.Dx() != width || rect.Dy() != height {
		return nil, fmt.Errorf("unexpected raster size %dx%d, want %dx%d", rect.Dx(), rect.Dy(), width, height)
	}

	r, err := models.NewRaster(band, width, height, bounds)
	if err != nil {
		return nil, err
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px, py := rect.Min.X+x, rect.Min.Y+y
			var v uint16
			switch g := img.(type) {
			case *image.Gray16:
				v = g.Gray16At(px, py).Y
			case *image.Gray:
				v = uint16(g.GrayAt(px, py).Y)
			default:
				v = color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y
			}
			r.Set(x, y, float64(v))
		}
	}
	return r, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("unexpected status code: %d - status: %s - body: %s", resp.StatusCode, resp.Status, strings.TrimSpace(string(msg)))
}
