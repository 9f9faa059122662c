package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/go-park-ndvi/internal/config"
	"github.com/mr1hm/go-park-ndvi/internal/dashboard"
	"github.com/mr1hm/go-park-ndvi/internal/events"
	"github.com/mr1hm/go-park-ndvi/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockRenderer struct {
	calls atomic.Int64
	err   error
}

func (r *mockRenderer) Render(ctx context.Context) (*dashboard.Result, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &dashboard.Result{Scene: models.Scene{ID: "S2_A"}, RenderedAt: time.Now()}, nil
}

func TestManager_SingleRenderWithoutInterval(t *testing.T) {
	cfg := &config.Config{Refresh: config.RefreshConfig{Interval: 0}}
	r := &mockRenderer{}

	m := NewManager(cfg, r, nil)
	m.Start(context.Background())
	m.Stop()

	if got := r.calls.Load(); got != 1 {
		t.Errorf("expected 1 render, got %d", got)
	}
}

func TestManager_PeriodicRefresh(t *testing.T) {
	cfg := &config.Config{Refresh: config.RefreshConfig{Interval: 10 * time.Millisecond}}
	r := &mockRenderer{}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(cfg, r, nil)
	m.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	m.Stop()

	if got := r.calls.Load(); got < 3 {
		t.Errorf("expected at least 3 renders, got %d", got)
	}
}

func TestManager_RenderErrorKeepsPolling(t *testing.T) {
	cfg := &config.Config{Refresh: config.RefreshConfig{Interval: 10 * time.Millisecond}}
	r := &mockRenderer{err: errors.New("earth engine unavailable")}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(cfg, r, nil)
	m.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	m.Stop()

	if got := r.calls.Load(); got < 2 {
		t.Errorf("expected polling to continue after a failure, got %d renders", got)
	}
}

func TestManager_StopAfterCancel(t *testing.T) {
	cfg := &config.Config{Refresh: config.RefreshConfig{Interval: time.Hour}}
	r := &mockRenderer{}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(cfg, r, nil)
	m.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancellation")
	}
}

func TestManager_BroadcastsRenders(t *testing.T) {
	cfg := &config.Config{}
	b := events.NewBroadcaster()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	m := NewManager(cfg, &mockRenderer{}, b)
	m.Start(context.Background())
	m.Stop()

	select {
	case e := <-ch:
		if e.SceneID != "S2_A" {
			t.Errorf("unexpected event %+v", e)
		}
	default:
		t.Error("expected a render event")
	}
}

func TestManager_NoBroadcastOnFailure(t *testing.T) {
	cfg := &config.Config{}
	b := events.NewBroadcaster()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	m := NewManager(cfg, &mockRenderer{err: errors.New("boom")}, b)
	m.Start(context.Background())
	m.Stop()

	if len(ch) != 0 {
		t.Errorf("expected no events, got %d", len(ch))
	}
}
