package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// Redis key namespaces, one per insight kind.
const (
	nsSpending = "fintrack:insights:spending"
	nsMonthly  = "fintrack:insights:monthly"
	nsPatterns = "fintrack:insights:patterns"
)

// Factory builds repositories, caches and clients from Config.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Build creates the store, the insight caches and, when configured, the
// AMQP client. An unreachable broker is logged and skipped so the API can
// run without events. On error everything created so far is released.
func (f *Factory) Build(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}

	store, cleanup, err := f.CreateStore(cfg)
	if err != nil {
		return nil, err
	}
	res.Store = store
	res.cleanups = append(res.cleanups, cleanup)

	caches, cleaners, cleanup, err := f.CreateCaches(ctx, cfg)
	if err != nil {
		_ = res.Cleanup()
		return nil, err
	}
	res.Caches, res.Cleaners = caches, cleaners
	if cleanup != nil {
		res.cleanups = append(res.cleanups, cleanup)
	}

	client, err := f.CreateAMQP(cfg)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
	} else if client != nil {
		res.AMQP = client
		res.Publisher = client
		res.cleanups = append(res.cleanups, client.Close)
	}

	return res, nil
}

// CreateStore opens the configured repository.
func (f *Factory) CreateStore(cfg Config) (core.Repository, CleanupFunc, error) {
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil
	case MemoryBackend:
		store := memory.New()
		f.logger.Info("Initialized memory backend")
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

// CreateCaches builds the insight caches. LRU caches come back with their
// cleaners for the cache Manager; Redis caches expire on their own.
func (f *Factory) CreateCaches(ctx context.Context, cfg Config) (services.InsightCaches, []cache.Cleaner, CleanupFunc, error) {
	switch cfg.Cache {
	case LRUCache:
		caches, cleaners := services.NewLRUInsightCaches(cfg.CacheSize, cfg.CacheTTL)
		f.logger.Info("Initialized in-memory insight cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
		return caches, cleaners, nil, nil
	case RedisCache:
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return services.InsightCaches{}, nil, nil, fmt.Errorf("failed to initialize Redis cache: %w", err)
		}
		caches := services.InsightCaches{
			Spending: cache.NewRedisCache[insights.Spending](client, nsSpending, cfg.CacheTTL),
			Monthly:  cache.NewRedisCache[insights.MonthlySeries](client, nsMonthly, cfg.CacheTTL),
			Patterns: cache.NewRedisCache[insights.Analysis](client, nsPatterns, cfg.CacheTTL),
		}
		f.logger.Info("Initialized Redis insight cache", "ttl", cfg.CacheTTL)
		return caches, nil, client.Close, nil
	default:
		return services.InsightCaches{}, nil, nil, fmt.Errorf("unsupported cache backend: %s", cfg.Cache)
	}
}

// CreateAMQP connects to the broker. It returns nil, nil when no URL is set.
func (f *Factory) CreateAMQP(cfg Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}

// CreateMirror returns the Google Sheets ledger when a spreadsheet is
// configured and the in-memory mirror otherwise.
func (f *Factory) CreateMirror(ctx context.Context, cfg Config) (Mirror, error) {
	if cfg.GoogleSpreadsheetID == "" {
		f.logger.Warn("No spreadsheet configured, ledger rows are kept in memory only")
		return Mirror{LedgerMirror: sheetsmem.New()}, nil
	}
	client, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		return Mirror{}, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return Mirror{LedgerMirror: client, Remote: true}, nil
}
