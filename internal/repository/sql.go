package repository

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-park-ndvi/internal/models"
)

type SQLCache struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLCache opens the cache on driver "sqlite" or "postgres".
func NewSQLCache(driver, dsn string, ttl time.Duration) (*SQLCache, error) {
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported cache driver: %s", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if driver == "sqlite" {
		// A second connection to ":memory:" would see an empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	c := &SQLCache{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
	if err := c.migrate(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return c, nil
}

func (c *SQLCache) migrate(driver string) error {
	blob := "BLOB"
	if driver == "postgres" {
		blob = "BYTEA"
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS scene_cache (
			cache_key TEXT PRIMARY KEY,
			scene_id TEXT NOT NULL,
			scene_name TEXT NOT NULL,
			collection TEXT NOT NULL,
			scene_time BIGINT NOT NULL,
			cloudy_pct DOUBLE PRECISION,
			band TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			min_lon DOUBLE PRECISION NOT NULL,
			min_lat DOUBLE PRECISION NOT NULL,
			max_lon DOUBLE PRECISION NOT NULL,
			max_lat DOUBLE PRECISION NOT NULL,
			data %s NOT NULL,
			created_at BIGINT NOT NULL
		)`, blob)

	_, err := c.db.Exec(schema)
	return err
}

type sceneRow struct {
	Key        string          `db:"cache_key"`
	SceneID    string          `db:"scene_id"`
	SceneName  string          `db:"scene_name"`
	Collection string          `db:"collection"`
	SceneTime  int64           `db:"scene_time"`
	CloudyPct  sql.NullFloat64 `db:"cloudy_pct"`
	Band       string          `db:"band"`
	Width      int             `db:"width"`
	Height     int             `db:"height"`
	MinLon     float64         `db:"min_lon"`
	MinLat     float64         `db:"min_lat"`
	MaxLon     float64         `db:"max_lon"`
	MaxLat     float64         `db:"max_lat"`
	Data       []byte          `db:"data"`
	CreatedAt  int64           `db:"created_at"`
}

func (c *SQLCache) Get(ctx context.Context, key string) (*Entry, error) {
	var row sceneRow
	query := c.db.Rebind(`SELECT * FROM scene_cache WHERE cache_key = ?`)
	if err := c.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading cache entry: %w", err)
	}

	created := time.UnixMilli(row.CreatedAt)
	if c.ttl > 0 && c.now().Sub(created) > c.ttl {
		return nil, nil
	}

	data, err := decodeFloats(row.Data, row.Width*row.Height)
	if err != nil {
		return nil, fmt.Errorf("cache entry %q: %w", key, err)
	}

	cloudy := math.NaN()
	if row.CloudyPct.Valid {
		cloudy = row.CloudyPct.Float64
	}

	return &Entry{
		Key: row.Key,
		Scene: models.Scene{
			ID:                    row.SceneID,
			Name:                  row.SceneName,
			Collection:            row.Collection,
			StartTime:             time.UnixMilli(row.SceneTime).UTC(),
			CloudyPixelPercentage: cloudy,
		},
		NDVI: &models.Raster{
			Band:   row.Band,
			Width:  row.Width,
			Height: row.Height,
			Bounds: models.Bounds{MinLon: row.MinLon, MinLat: row.MinLat, MaxLon: row.MaxLon, MaxLat: row.MaxLat},
			Data:   data,
		},
		CreatedAt: created,
	}, nil
}

func (c *SQLCache) Put(ctx context.Context, e *Entry) error {
	if e.NDVI == nil {
		return fmt.Errorf("cache entry %q has no raster", e.Key)
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = c.now()
	}

	cloudy := sql.NullFloat64{Float64: e.Scene.CloudyPixelPercentage, Valid: !math.IsNaN(e.Scene.CloudyPixelPercentage)}

	query := c.db.Rebind(`
		INSERT INTO scene_cache (
			cache_key, scene_id, scene_name, collection, scene_time, cloudy_pct,
			band, width, height, min_lon, min_lat, max_lon, max_lat, data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			scene_id = excluded.scene_id,
			scene_name = excluded.scene_name,
			collection = excluded.collection,
			scene_time = excluded.scene_time,
			cloudy_pct = excluded.cloudy_pct,
			band = excluded.band,
			width = excluded.width,
			height = excluded.height,
			min_lon = excluded.min_lon,
			min_lat = excluded.min_lat,
			max_lon = excluded.max_lon,
			max_lat = excluded.max_lat,
			data = excluded.data,
			created_at = excluded.created_at`)

	b := e.NDVI.Bounds
	_, err := c.db.ExecContext(ctx, query,
		e.Key, e.Scene.ID, e.Scene.Name, e.Scene.Collection, e.Scene.StartTime.UnixMilli(), cloudy,
		e.NDVI.Band, e.NDVI.Width, e.NDVI.Height, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat,
		encodeFloats(e.NDVI.Data), created.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error writing cache entry: %w", err)
	}
	return nil
}

func (c *SQLCache) Close() error {
	return c.db.Close()
}

func encodeFloats(data []float64) []byte {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte, n int) ([]float64, error) {
	if len(buf) != 8*n {
		return nil, fmt.Errorf("raster blob has %d bytes, want %d", len(buf), 8*n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}
