package graph

import (
	"context"
	"errors"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "hays/backend/pkg/errors"
	"hays/backend/pkg/logger"
)

// StoreConfig holds the connection parameters for the graph store.
type StoreConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

// Store owns the lazily-established Neo4j driver handle and the one-time
// schema readiness flag. It is created once per process (or per test) and
// injected into the repository; nothing in this package touches package-level
// state.
//
// The handle is discarded whenever an operation hits a transient failure, so
// the next caller re-establishes it. Reconnection is lazy only; there is no
// background reconnect loop.
type Store struct {
	cfg StoreConfig
	log *zap.Logger

	mu     sync.RWMutex
	driver neo4j.DriverWithContext

	connect singleflight.Group

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewStore creates a Store. No connection is attempted until the first query.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	return &Store{
		cfg: cfg,
		log: logger.Named("graph"),
	}
}

// acquire returns the cached driver, establishing it on first use. Concurrent
// callers racing on a cold or invalidated handle share a single connection
// attempt.
func (s *Store) acquire(ctx context.Context) (neo4j.DriverWithContext, error) {
	s.mu.RLock()
	d := s.driver
	s.mu.RUnlock()
	if d != nil {
		return d, nil
	}

	v, err, _ := s.connect.Do("connect", func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.driver != nil {
			return s.driver, nil
		}

		if s.cfg.URI == "" || s.cfg.User == "" || s.cfg.Password == "" {
			return nil, apperrors.New(apperrors.KindConfiguration,
				"neo4j configuration missing: set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD")
		}

		driver, err := neo4j.NewDriverWithContext(
			s.cfg.URI,
			neo4j.BasicAuth(s.cfg.User, s.cfg.Password, ""),
		)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConnection, "failed to create neo4j driver", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			_ = driver.Close(ctx)
			return nil, apperrors.Wrap(apperrors.KindConnection, "failed to connect to neo4j", err)
		}

		s.log.Info("Connected to Neo4j", zap.String("uri", s.cfg.URI))
		s.driver = driver
		return driver, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(neo4j.DriverWithContext), nil
}

// invalidate discards the cached handle so the next acquire reconnects.
func (s *Store) invalidate(ctx context.Context) {
	s.mu.Lock()
	d := s.driver
	s.driver = nil
	s.mu.Unlock()

	if d != nil {
		_ = d.Close(ctx)
	}
}

// Close releases the cached driver, if any.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	d := s.driver
	s.driver = nil
	s.mu.Unlock()

	if d == nil {
		return nil
	}
	return d.Close(ctx)
}

// classify normalizes a driver error into the service taxonomy. Transient
// connectivity conditions become KindConnection (retryable); errors the
// server reports as permanent become KindQuery with the server's diagnostic
// message; anything else is KindInternal.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.KindConnection, "neo4j request timed out", err)
	}
	if neo4j.IsConnectivityError(err) {
		return apperrors.Wrap(apperrors.KindConnection, "neo4j unavailable", err)
	}

	var dbErr *neo4j.Neo4jError
	if errors.As(err, &dbErr) {
		if dbErr.IsRetriable() {
			return apperrors.Wrap(apperrors.KindConnection, "neo4j transient failure", err)
		}
		return apperrors.Wrap(apperrors.KindQuery, "neo4j error: "+dbErr.Msg, err)
	}

	return apperrors.Wrap(apperrors.KindInternal, "database error", err)
}
