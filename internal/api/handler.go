package api

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-park-ndvi/internal/dashboard"
	"github.com/mr1hm/go-park-ndvi/internal/events"
)

const pageTitle = "Urban Park NDVI"

// Pipeline is the rendering service behind the handlers.
type Pipeline interface {
	Current(ctx context.Context) (*dashboard.Result, error)
	Render(ctx context.Context) (*dashboard.Result, error)
}

type Handler struct {
	pipeline    Pipeline
	broadcaster *events.Broadcaster
}

// NewHandler creates the HTTP handlers. broadcaster may be nil, which
// disables /api/events.
func NewHandler(pipeline Pipeline, broadcaster *events.Broadcaster) *Handler {
	return &Handler{
		pipeline:    pipeline,
		broadcaster: broadcaster,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.getMap)
	r.GET(dashboard.MaskedImagePath, h.getMaskedImage)
	r.GET(dashboard.FullImagePath, h.getFullImage)
	r.GET("/api/parks", h.getParks)
	r.GET("/api/scene", h.getScene)
	r.POST("/api/refresh", h.refresh)
	r.GET("/api/events", h.streamEvents)
	r.GET("/health", h.health)
}

func (h *Handler) current(c *gin.Context) (*dashboard.Result, bool) {
	res, err := h.pipeline.Current(c.Request.Context())
	if err != nil {
		slog.Error("render failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to render map",
		})
		return nil, false
	}
	return res, true
}

func (h *Handler) getMap(c *gin.Context) {
	res, ok := h.current(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := res.Map.Render(&buf, pageTitle); err != nil {
		slog.Error("page render failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to render page",
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) getMaskedImage(c *gin.Context) {
	res, ok := h.current(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", res.MaskedPNG)
}

func (h *Handler) getFullImage(c *gin.Context) {
	res, ok := h.current(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", res.FullPNG)
}

func (h *Handler) getParks(c *gin.Context) {
	res, ok := h.current(c)
	if !ok {
		return
	}

	fc := toGeoJSON(res)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getScene(c *gin.Context) {
	res, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toSceneResponse(res))
}

func (h *Handler) refresh(c *gin.Context) {
	res, err := h.pipeline.Render(c.Request.Context())
	if err != nil {
		slog.Error("refresh failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to refresh map",
		})
		return
	}
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(res.Event())
	}
	c.JSON(http.StatusOK, toSceneResponse(res))
}

// streamEvents sends a server-sent "rendered" event for every new map until
// the client goes away or the broadcaster closes.
func (h *Handler) streamEvents(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "event stream disabled",
		})
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("rendered", e)
			c.Writer.Flush()
		}
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type sceneResponse struct {
	ID                    string        `json:"id"`
	Collection            string        `json:"collection"`
	StartTime             string        `json:"start_time,omitempty"`
	CloudyPixelPercentage *float64      `json:"cloudy_pixel_percentage"`
	Bounds                [2][2]float64 `json:"bounds"`
	Parks                 int           `json:"parks"`
	FromCache             bool          `json:"from_cache"`
	RenderedAt            string        `json:"rendered_at"`
}

func toSceneResponse(res *dashboard.Result) sceneResponse {
	resp := sceneResponse{
		ID:                    res.Scene.ID,
		Collection:            res.Scene.Collection,
		CloudyPixelPercentage: finite(res.Scene.CloudyPixelPercentage),
		Bounds:                res.AOI.Bounds().Leaflet(),
		Parks:                 len(res.Parks),
		FromCache:             res.FromCache,
		RenderedAt:            res.RenderedAt.UTC().Format(timeLayout),
	}
	if !res.Scene.StartTime.IsZero() {
		resp.StartTime = res.Scene.StartTime.UTC().Format(timeLayout)
	}
	return resp
}

// finite maps NaN and infinities to nil so they encode as JSON null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
