package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

type Config struct {
	Server      ServerConfig
	EarthEngine EarthEngineConfig
	Imagery     ImageryConfig
	Parks       ParksConfig
	Map         MapConfig
	Cache       CacheConfig
	Worker      WorkerConfig
	Refresh     RefreshConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	RateLimit int
}

// EarthEngineConfig holds the service account secrets and the REST endpoint.
type EarthEngineConfig struct {
	ServiceAccount string
	KeyFileJSON    string
	Project        string
	APIURL         string
	RequestTimeout time.Duration
}

type ImageryConfig struct {
	Collection string
	CenterLat  float64
	CenterLon  float64
	Buffer     float64
	StartDate  string
	EndDate    string
	PixelScale float64 // degrees per pixel
}

type ParksConfig struct {
	Source      string // "csv" or "overpass"
	CSVPath     string
	OverpassURL string
	ColorSeed   uint64 // 0 = unseeded
}

type MapConfig struct {
	Zoom   int
	Height int
}

type CacheConfig struct {
	Driver string // "sqlite", "postgres" or "none"
	DSN    string
	TTL    time.Duration
}

type WorkerConfig struct {
	Count int
}

type RefreshConfig struct {
	Interval time.Duration // 0 disables periodic refresh
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvInt("RATE_LIMIT", 5),
		},
		EarthEngine: EarthEngineConfig{
			ServiceAccount: getEnv("EE_SERVICE_ACCOUNT", ""),
			KeyFileJSON:    getEnv("EE_KEY_FILE_JSON", ""),
			Project:        getEnv("EE_GOOGLE_CLOUD_PROJECT", ""),
			APIURL:         getEnv("EE_API_URL", "https://earthengine.googleapis.com"),
			RequestTimeout: getEnvDuration("EE_REQUEST_TIMEOUT", 60*time.Second),
		},
		Imagery: ImageryConfig{
			Collection: getEnv("EE_COLLECTION", "COPERNICUS/S2_SR_HARMONIZED"),
			CenterLat:  getEnvFloat("AOI_CENTER_LAT", 39.9052),
			CenterLon:  getEnvFloat("AOI_CENTER_LON", 32.8112),
			Buffer:     getEnvFloat("AOI_BUFFER", 0.02),
			StartDate:  getEnv("START_DATE", "2023-06-01"),
			EndDate:    getEnv("END_DATE", "2023-06-28"),
			PixelScale: getEnvFloat("PIXEL_SCALE", 0.0001),
		},
		Parks: ParksConfig{
			Source:      getEnv("PARKS_SOURCE", "csv"),
			CSVPath:     getEnv("PARKS_CSV", "data/park_polygons.csv"),
			OverpassURL: getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			ColorSeed:   uint64(getEnvInt("PARK_COLOR_SEED", 0)),
		},
		Map: MapConfig{
			Zoom:   getEnvInt("MAP_ZOOM", 12),
			Height: getEnvInt("MAP_HEIGHT", 1000),
		},
		Cache: CacheConfig{
			Driver: getEnv("CACHE_DRIVER", "sqlite"),
			DSN:    getEnv("CACHE_DSN", "./data/scene-cache.db"),
			TTL:    getEnvDuration("CACHE_TTL", 24*time.Hour),
		},
		Worker: WorkerConfig{
			Count: getEnvInt("WORKER_COUNT", 2),
		},
		Refresh: RefreshConfig{
			Interval: getEnvDuration("REFRESH_INTERVAL", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Secrets are required; there is no anonymous access to Earth Engine.
	if c.EarthEngine.ServiceAccount == "" {
		return fmt.Errorf("EE_SERVICE_ACCOUNT is required")
	}
	if c.EarthEngine.KeyFileJSON == "" {
		return fmt.Errorf("EE_KEY_FILE_JSON is required")
	}
	if c.EarthEngine.Project == "" {
		return fmt.Errorf("EE_GOOGLE_CLOUD_PROJECT is required")
	}

	if c.Imagery.Buffer <= 0 {
		return fmt.Errorf("AOI buffer must be positive: %v", c.Imagery.Buffer)
	}
	if c.Imagery.PixelScale <= 0 {
		return fmt.Errorf("pixel scale must be positive: %v", c.Imagery.PixelScale)
	}
	start, err := time.Parse(DateLayout, c.Imagery.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", c.Imagery.StartDate, err)
	}
	end, err := time.Parse(DateLayout, c.Imagery.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", c.Imagery.EndDate, err)
	}
	if !end.After(start) {
		return fmt.Errorf("end date %s must be after start date %s", c.Imagery.EndDate, c.Imagery.StartDate)
	}

	switch c.Parks.Source {
	case "csv", "overpass":
	default:
		return fmt.Errorf("invalid parks source: %s", c.Parks.Source)
	}

	switch c.Cache.Driver {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Refresh.Interval != 0 && c.Refresh.Interval < time.Minute {
		return fmt.Errorf("refresh interval must be at least 1 minute")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
