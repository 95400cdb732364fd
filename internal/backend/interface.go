package backend

import (
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
)

// CleanupFunc releases a resource created by the factory.
type CleanupFunc func() error

// BackendType selects the repository implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CacheType selects where computed insights are cached.
type CacheType string

const (
	LRUCache   CacheType = "memory"
	RedisCache CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	return ct == LRUCache || ct == RedisCache
}

// Config holds everything the factory needs to build the runtime backends.
type Config struct {
	Type         BackendType
	SQLiteDBPath string

	Cache     CacheType
	RedisURL  string
	CacheTTL  time.Duration
	CacheSize int

	// Empty AMQPURL disables the event bus.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Empty GoogleSpreadsheetID selects the in-memory mirror.
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// Result bundles the backends built for one process.
type Result struct {
	Store    core.Repository
	Caches   services.InsightCaches
	Cleaners []cache.Cleaner

	// AMQP is nil when the event bus is disabled. Publisher is the same
	// client typed as the service port, left nil in that case.
	AMQP      *amqp.Client
	Publisher services.EventPublisher

	cleanups []CleanupFunc
}

// Cleanup releases resources in reverse creation order and returns the
// first error.
func (r *Result) Cleanup() error {
	var first error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil && first == nil {
			first = err
		}
	}
	r.cleanups = nil
	return first
}

// Mirror is the ledger destination used by the worker.
type Mirror struct {
	sheets.LedgerMirror
	Remote bool
}
