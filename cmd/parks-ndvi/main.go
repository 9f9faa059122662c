package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-park-ndvi/internal/api"
	"github.com/mr1hm/go-park-ndvi/internal/config"
	"github.com/mr1hm/go-park-ndvi/internal/dashboard"
	"github.com/mr1hm/go-park-ndvi/internal/earthengine"
	"github.com/mr1hm/go-park-ndvi/internal/events"
	"github.com/mr1hm/go-park-ndvi/internal/logging"
	"github.com/mr1hm/go-park-ndvi/internal/parks"
	"github.com/mr1hm/go-park-ndvi/internal/refresh"
	"github.com/mr1hm/go-park-ndvi/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := earthengine.Initialize(ctx, earthengine.Secrets{
		ServiceAccount: cfg.EarthEngine.ServiceAccount,
		KeyFileJSON:    cfg.EarthEngine.KeyFileJSON,
		Project:        cfg.EarthEngine.Project,
	}, earthengine.WithTimeout(cfg.EarthEngine.RequestTimeout))
	if err != nil {
		logging.Fatalf("Failed to initialize Earth Engine: %v", err)
	}
	slog.Info("earth engine session ready", "project", session.Project)

	images := earthengine.NewClient(session, cfg.EarthEngine.APIURL, cfg.Imagery.Collection, cfg.Worker.Count)

	colors := parks.NewColorPicker(parks.DefaultColors, cfg.Parks.ColorSeed)
	var parkSource parks.Source
	switch cfg.Parks.Source {
	case "overpass":
		parkSource = parks.NewOverpassSource(cfg.Parks.OverpassURL, cfg.EarthEngine.RequestTimeout, colors)
	default:
		parkSource = &parks.CSVSource{Path: cfg.Parks.CSVPath, Colors: colors}
	}

	var cache repository.SceneCache
	if cfg.Cache.Driver != "none" {
		if cfg.Cache.Driver == "sqlite" {
			if err := os.MkdirAll(filepath.Dir(cfg.Cache.DSN), 0o755); err != nil {
				logging.Fatalf("Failed to create cache directory: %v", err)
			}
		}
		sqlCache, err := repository.NewSQLCache(cfg.Cache.Driver, cfg.Cache.DSN, cfg.Cache.TTL)
		if err != nil {
			logging.Fatalf("Failed to initialize scene cache: %v", err)
		}
		defer sqlCache.Close()
		cache = sqlCache
	}

	svc, err := dashboard.NewService(cfg, images, parkSource, cache)
	if err != nil {
		logging.Fatalf("Failed to create dashboard: %v", err)
	}

	// Render notifications for /api/events
	broadcaster := events.NewBroadcaster()

	mgr := refresh.NewManager(cfg, svc, broadcaster)
	mgr.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RequestIDMiddleware())
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit))

	handler := api.NewHandler(svc, broadcaster)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	broadcaster.Close() // Close all streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
