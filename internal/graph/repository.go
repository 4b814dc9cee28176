package graph

import (
	"time"

	"go.uber.org/zap"

	"hays/backend/pkg/logger"
)

// Repository handles all Neo4j database operations for the messaging domain.
// Every method opens a short-lived session through the store's executor, so
// no lock or resource outlives a single request.
type Repository struct {
	store  *Store
	logger *zap.Logger
}

// NewRepository creates a new graph repository on top of the given store.
func NewRepository(store *Store) *Repository {
	return &Repository{
		store:  store,
		logger: logger.Named("repository"),
	}
}

// isoTimestampFormat is RFC3339 with fixed-width microseconds so persisted
// timestamps sort lexicographically in query ORDER BY clauses.
const isoTimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

func isoNow() string {
	return time.Now().UTC().Format(isoTimestampFormat)
}
