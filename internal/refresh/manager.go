// Package refresh keeps the rendered map current by re-running the pipeline
// on an interval.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-park-ndvi/internal/config"
	"github.com/mr1hm/go-park-ndvi/internal/dashboard"
	"github.com/mr1hm/go-park-ndvi/internal/events"
)

type Renderer interface {
	Render(ctx context.Context) (*dashboard.Result, error)
}

type Manager struct {
	cfg         *config.Config
	renderer    Renderer
	broadcaster *events.Broadcaster
	wg          sync.WaitGroup
}

// NewManager creates a refresher. broadcaster may be nil.
func NewManager(cfg *config.Config, renderer Renderer, broadcaster *events.Broadcaster) *Manager {
	return &Manager{
		cfg:         cfg,
		renderer:    renderer,
		broadcaster: broadcaster,
	}
}

// Start renders once in the background. With a positive refresh interval it
// keeps re-rendering until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	if m.cfg.Refresh.Interval <= 0 {
		go func() {
			defer m.wg.Done()
			m.render(ctx)
		}()
		return
	}
	go m.runPoller(ctx, m.cfg.Refresh.Interval)
}

func (m *Manager) runPoller(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting refresher", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.render(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresher shutting down")
			return
		case <-ticker.C:
			m.render(ctx)
		}
	}
}

func (m *Manager) render(ctx context.Context) {
	slog.Debug("refreshing map")
	res, err := m.renderer.Render(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("refresh failed", "error", err)
		return
	}

	if m.broadcaster != nil {
		m.broadcaster.Broadcast(res.Event())
	}
}

// Stop waits for in-flight renders. Cancel the Start context first.
func (m *Manager) Stop() {
	m.wg.Wait()
	slog.Info("refresh manager stopped")
}
