package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// EnsureSchema creates the uniqueness constraint the messaging queries rely
// on. It runs at most once per Store and fails safe: a deployment without
// schema privileges still serves traffic, it just loses the index.
func (s *Store) EnsureSchema(ctx context.Context) {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return
	}
	// Marked ready even on failure so a broken environment is probed once,
	// not on every request.
	s.schemaReady = true

	driver, err := s.acquire(ctx)
	if err != nil {
		s.log.Warn("Skipping schema setup, store unavailable", zap.Error(err))
		return
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
	defer session.Close(ctx)

	constraints := []string{
		`CREATE CONSTRAINT conversation_id_unique IF NOT EXISTS
		 FOR (c:Conversation)
		 REQUIRE c.id IS UNIQUE`,
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS
		 FOR (u:User)
		 REQUIRE u.id IS UNIQUE`,
	}
	for _, stmt := range constraints {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			s.log.Warn("Constraint creation failed", zap.Error(err))
			return
		}
	}
	s.log.Info("Graph schema constraints ensured")
}
