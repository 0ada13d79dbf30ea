package backend

import (
	"context"

	"bollette/internal/core"
	"bollette/internal/services"
)

// Store is the full port set a storage backend provides to the engine.
type Store interface {
	services.ObligationStore
	services.InstanceStore
	services.EventLog
	services.InsightWriter
	services.BudgetStore
	services.ExpenseAggregator
	services.ExpenseWriter

	SaveBudget(ctx context.Context, b core.Budget) (int64, error)
	ListInsights(ctx context.Context, userID string, limit int) ([]core.Insight, error)
	// HasData reports whether any obligation, budget or expense is stored.
	HasData(ctx context.Context) (bool, error)
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the wired backend. Events is the store itself unless
// a shared Redis dedup log is configured; Publisher is nil when AMQP is off.
type BackendResult struct {
	Store     Store
	Events    services.EventLog
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Dedup log
	DedupBackend  DedupType
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BackendType represents the type of backend
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

// DedupType selects where notification events are deduplicated.
type DedupType string

const (
	DedupStore DedupType = "store"
	DedupRedis DedupType = "redis"
)

func (dt DedupType) IsValid() bool {
	return dt == DedupStore || dt == DedupRedis
}
