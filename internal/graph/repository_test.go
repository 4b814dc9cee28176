package graph

import (
	"context"
	"os"
	"testing"
	"time"

	apperrors "hays/backend/pkg/errors"
)

// These tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

func testStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	user := os.Getenv("NEO4J_USER")
	if user == "" {
		user = "neo4j"
	}
	password := os.Getenv("NEO4J_PASSWORD")
	if password == "" {
		password = "password"
	}

	store := NewStore(StoreConfig{URI: uri, User: user, Password: password})
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

func cleanupPair(t *testing.T, store *Store, a, b string) {
	t.Helper()
	ctx := context.Background()
	_, _ = store.Run(ctx, `
		MATCH (c:Conversation {id: $cid})
		OPTIONAL MATCH (c)-[:HAS_MESSAGE]->(m:Message)
		DETACH DELETE c, m
	`, map[string]any{"cid": ConversationID(a, b)})
	_, _ = store.Run(ctx, `MATCH (u:User) WHERE u.id IN [$a, $b] DETACH DELETE u`,
		map[string]any{"a": a, "b": b})
}

func testPair(t *testing.T) (string, string) {
	suffix := time.Now().Format("20060102150405")
	return "test-a-" + suffix, "test-b-" + suffix
}

func TestRepository_EnsureConversation_Idempotent(t *testing.T) {
	store := testStore(t)
	repo := NewRepository(store)
	ctx := context.Background()

	a, b := testPair(t)
	defer cleanupPair(t, store, a, b)

	if err := repo.EnsureUser(ctx, a, "alice", ""); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if err := repo.EnsureUser(ctx, b, "bob", ""); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	first, err := repo.EnsureConversation(ctx, a, b)
	if err != nil {
		t.Fatalf("EnsureConversation failed: %v", err)
	}
	second, err := repo.EnsureConversation(ctx, b, a)
	if err != nil {
		t.Fatalf("EnsureConversation (swapped) failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected same conversation id, got %q and %q", first.ID, second.ID)
	}
	if first.CreatedAt != second.CreatedAt {
		t.Errorf("created_at changed on re-ensure: %q vs %q", first.CreatedAt, second.CreatedAt)
	}

	participants, err := repo.Participants(ctx, first.ID)
	if err != nil {
		t.Fatalf("Participants failed: %v", err)
	}
	if len(participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(participants))
	}
}

func TestRepository_HistoryOrder(t *testing.T) {
	store := testStore(t)
	repo := NewRepository(store)
	ctx := context.Background()

	a, b := testPair(t)
	defer cleanupPair(t, store, a, b)

	_ = repo.EnsureUser(ctx, a, "", "")
	_ = repo.EnsureUser(ctx, b, "", "")
	convo, err := repo.EnsureConversation(ctx, a, b)
	if err != nil {
		t.Fatalf("EnsureConversation failed: %v", err)
	}

	for _, content := range []string{"a", "b", "c"} {
		if _, err := repo.CreateMessage(ctx, convo.ID, a, b, content); err != nil {
			t.Fatalf("CreateMessage %q failed: %v", content, err)
		}
		time.Sleep(2 * time.Millisecond) // distinct microsecond timestamps
	}

	history, err := repo.History(ctx, convo.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(history))
	}
	for i, want := range []string{"a", "b", "c"} {
		if history[i].Content != want {
			t.Errorf("history[%d] = %q, want %q", i, history[i].Content, want)
		}
	}
}

func TestRepository_MarkRead_Idempotent(t *testing.T) {
	store := testStore(t)
	repo := NewRepository(store)
	ctx := context.Background()

	a, b := testPair(t)
	defer cleanupPair(t, store, a, b)

	_ = repo.EnsureUser(ctx, a, "", "")
	_ = repo.EnsureUser(ctx, b, "", "")
	convo, err := repo.EnsureConversation(ctx, a, b)
	if err != nil {
		t.Fatalf("EnsureConversation failed: %v", err)
	}
	if _, err := repo.CreateMessage(ctx, convo.ID, a, b, "hello"); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	first, err := repo.MarkRead(ctx, convo.ID, b)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if first != 1 {
		t.Errorf("Expected 1 newly-marked message, got %d", first)
	}

	second, err := repo.MarkRead(ctx, convo.ID, b)
	if err != nil {
		t.Fatalf("MarkRead (second) failed: %v", err)
	}
	if second != 0 {
		t.Errorf("Expected 0 newly-marked messages on re-invocation, got %d", second)
	}
}

func TestRepository_DeletePrunesEmptyConversation(t *testing.T) {
	store := testStore(t)
	repo := NewRepository(store)
	ctx := context.Background()

	a, b := testPair(t)
	defer cleanupPair(t, store, a, b)

	_ = repo.EnsureUser(ctx, a, "", "")
	_ = repo.EnsureUser(ctx, b, "", "")
	convo, err := repo.EnsureConversation(ctx, a, b)
	if err != nil {
		t.Fatalf("EnsureConversation failed: %v", err)
	}
	if _, err := repo.CreateMessage(ctx, convo.ID, a, b, "only one"); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	if err := repo.DeleteByConversation(ctx, convo.ID); err != nil {
		t.Fatalf("DeleteByConversation failed: %v", err)
	}
	if err := repo.PruneConversationIfEmpty(ctx, convo.ID); err != nil {
		t.Fatalf("PruneConversationIfEmpty failed: %v", err)
	}

	_, err = repo.Participants(ctx, convo.ID)
	if err == nil {
		t.Fatal("Expected error for pruned conversation")
	}
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Expected not_found kind, got %v", apperrors.KindOf(err))
	}
}
