package config

import (
	"testing"
	"time"
)

func setSecrets(t *testing.T) {
	t.Setenv("EE_SERVICE_ACCOUNT", "ndvi@example.iam.gserviceaccount.com")
	t.Setenv("EE_KEY_FILE_JSON", `{"type":"service_account"}`)
	t.Setenv("EE_GOOGLE_CLOUD_PROJECT", "parks-ndvi")
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Imagery.CenterLat != 39.9052 || cfg.Imagery.CenterLon != 32.8112 {
		t.Errorf("unexpected center: %v, %v", cfg.Imagery.CenterLat, cfg.Imagery.CenterLon)
	}
	if cfg.Imagery.Buffer != 0.02 {
		t.Errorf("expected buffer 0.02, got %v", cfg.Imagery.Buffer)
	}
	if cfg.Imagery.Collection != "COPERNICUS/S2_SR_HARMONIZED" {
		t.Errorf("unexpected collection %s", cfg.Imagery.Collection)
	}
	if cfg.Parks.CSVPath != "data/park_polygons.csv" {
		t.Errorf("unexpected csv path %s", cfg.Parks.CSVPath)
	}
	if cfg.Map.Height != 1000 || cfg.Map.Zoom != 12 {
		t.Errorf("unexpected map config %+v", cfg.Map)
	}
	if cfg.Refresh.Interval != 0 {
		t.Errorf("expected refresh disabled by default, got %v", cfg.Refresh.Interval)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("AOI_BUFFER", "0.05")
	t.Setenv("REFRESH_INTERVAL", "30m")
	t.Setenv("PARKS_SOURCE", "overpass")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Imagery.Buffer != 0.05 {
		t.Errorf("expected buffer 0.05, got %v", cfg.Imagery.Buffer)
	}
	if cfg.Refresh.Interval != 30*time.Minute {
		t.Errorf("expected 30m refresh, got %v", cfg.Refresh.Interval)
	}
	if cfg.Parks.Source != "overpass" {
		t.Errorf("expected overpass source, got %s", cfg.Parks.Source)
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("EE_SERVICE_ACCOUNT", "")
	t.Setenv("EE_KEY_FILE_JSON", "")
	t.Setenv("EE_GOOGLE_CLOUD_PROJECT", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing secrets")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port", "SERVER_PORT", "70000"},
		{"log level", "LOG_LEVEL", "verbose"},
		{"buffer", "AOI_BUFFER", "-1"},
		{"start date", "START_DATE", "2023/06/01"},
		{"reversed dates", "END_DATE", "2023-05-01"},
		{"parks source", "PARKS_SOURCE", "shapefile"},
		{"cache driver", "CACHE_DRIVER", "redis"},
		{"refresh interval", "REFRESH_INTERVAL", "10s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSecrets(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
