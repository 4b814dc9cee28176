package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "hays/backend/pkg/errors"
)

// RetryPolicy bounds how often a query is re-attempted after a transient
// connectivity failure. The cached driver handle is invalidated between
// attempts so each retry reconnects.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

var (
	// manyPolicy applies to queries returning a materialized row list.
	manyPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 150 * time.Millisecond}
	// singlePolicy applies to queries returning at most one row.
	singlePolicy = RetryPolicy{MaxAttempts: 2, Backoff: 150 * time.Millisecond}
)

// Run executes a Cypher query and returns all result rows, fully materialized
// before the session closes. Rows are never read from a closed session.
func (s *Store) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	var records []*neo4j.Record
	err := s.withRetry(ctx, manyPolicy, func() error {
		driver, err := s.acquire(ctx)
		if err != nil {
			return err
		}

		session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
		defer session.Close(ctx)

		result, err := session.Run(ctx, cypher, params)
		if err != nil {
			return classify(err)
		}
		records, err = result.Collect(ctx)
		if err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RunSingle executes a Cypher query and returns its first row, or nil when
// the query produced none.
func (s *Store) RunSingle(ctx context.Context, cypher string, params map[string]any) (*neo4j.Record, error) {
	var record *neo4j.Record
	err := s.withRetry(ctx, singlePolicy, func() error {
		driver, err := s.acquire(ctx)
		if err != nil {
			return err
		}

		session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
		defer session.Close(ctx)

		result, err := session.Run(ctx, cypher, params)
		if err != nil {
			return classify(err)
		}
		record = nil
		if result.Next(ctx) {
			record = result.Record()
		}
		if err := result.Err(); err != nil {
			return classify(err)
		}
		// Drain so the summary is consumed inside the session.
		if _, err := result.Consume(ctx); err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// withRetry runs op under the given policy, invalidating the cached handle
// between attempts. Non-retryable errors surface immediately.
func (s *Store) withRetry(ctx context.Context, policy RetryPolicy, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !apperrors.Retryable(err) {
			return err
		}

		lastErr = err
		s.invalidate(ctx)
		s.log.Warn("Transient graph store failure, reconnecting",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Error(err),
		)

		if attempt < policy.MaxAttempts && policy.Backoff > 0 {
			select {
			case <-ctx.Done():
				return apperrors.Wrap(apperrors.KindConnection, "cancelled while retrying", ctx.Err())
			case <-time.After(policy.Backoff):
			}
		}
	}
	return lastErr
}
