package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/config"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		Type:      MemoryBackend,
		Cache:     LRUCache,
		CacheTTL:  time.Minute,
		CacheSize: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad backend", func(c *Config) { c.Type = "sheets" }, "invalid backend type: sheets"},
		{"sqlite without path", func(c *Config) { c.Type = SQLiteBackend }, "SQLite database path is required"},
		{"bad cache", func(c *Config) { c.Cache = "memcached" }, "invalid cache backend: memcached"},
		{"redis without url", func(c *Config) { c.Cache = RedisCache }, "Redis URL is required"},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }, "cache TTL must be positive"},
		{"zero size", func(c *Config) { c.CacheSize = 0 }, "cache size must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	app := &config.Config{
		DataBackend:       "sqlite",
		SQLiteDBPath:      "/tmp/x.db",
		CacheBackend:      "memory",
		InsightsCacheTTL:  5 * time.Minute,
		InsightsCacheSize: 500,
		AMQPExchange:      "fintrack",
		GoogleSheetName:   "Ledger",
	}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, LRUCache, cfg.Cache)
	assert.Equal(t, 500, cfg.CacheSize)
	assert.Equal(t, "Ledger", cfg.GoogleSheetName)
}

func TestFactory_BuildMemory(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.Build(context.Background(), baseConfig())
	require.NoError(t, err)

	assert.IsType(t, &memory.Store{}, res.Store)
	assert.Len(t, res.Cleaners, 3)
	assert.NotNil(t, res.Caches.Spending)
	assert.NotNil(t, res.Caches.Monthly)
	assert.NotNil(t, res.Caches.Patterns)
	assert.Nil(t, res.AMQP)
	assert.Nil(t, res.Publisher, "disabled event bus leaves the port nil")

	require.NoError(t, res.Cleanup())
	require.NoError(t, res.Cleanup(), "second cleanup is a no-op")
}

func TestFactory_BuildSQLite(t *testing.T) {
	cfg := baseConfig()
	cfg.Type = SQLiteBackend
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "nested", "fintrack.db")

	res, err := NewFactory(nil).Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.IsType(t, &storage.SQLiteRepository{}, res.Store)
	assert.NoError(t, res.Store.Ping(context.Background()))
}

func TestFactory_RedisUnreachable(t *testing.T) {
	cfg := baseConfig()
	cfg.Cache = RedisCache
	cfg.RedisURL = "not-a-redis-url"

	_, err := NewFactory(nil).Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize Redis cache")
}

func TestFactory_CreateAMQPDisabled(t *testing.T) {
	client, err := NewFactory(nil).CreateAMQP(baseConfig())
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestFactory_CreateMirror(t *testing.T) {
	f := NewFactory(nil)

	m, err := f.CreateMirror(context.Background(), baseConfig())
	require.NoError(t, err)
	assert.False(t, m.Remote)
	assert.IsType(t, &sheetsmem.Store{}, m.LedgerMirror)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	cfg := baseConfig()
	cfg.GoogleSpreadsheetID = "sheet-1"
	_, err = f.CreateMirror(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize Google Sheets client")
}

func TestResult_CleanupOrder(t *testing.T) {
	var order []int
	res := &Result{cleanups: []CleanupFunc{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return assert.AnError },
		func() error { order = append(order, 3); return nil },
	}}
	assert.ErrorIs(t, res.Cleanup(), assert.AnError)
	assert.Equal(t, []int{3, 2, 1}, order)
}
