package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "hays/backend/pkg/errors"
)

// ============================================================================
// Conversation Operations
// ============================================================================

// EnsureConversation idempotently creates the conversation between two users
// along with both PARTICIPATES_IN relationships. The conversation id is the
// canonical pair id, so re-invocation always lands on the same node;
// created_at is set only on first creation. Both user nodes must already
// exist.
func (r *Repository) EnsureConversation(ctx context.Context, me, other string) (*Conversation, error) {
	if me == other {
		return nil, apperrors.New(apperrors.KindSelfReference, "cannot start a conversation with yourself")
	}

	cid := ConversationID(me, other)
	query := `
		MERGE (c:Conversation {id: $cid})
		  ON CREATE SET c.created_at = $now
		WITH c
		MATCH (u1:User {id: $me})
		MATCH (u2:User {id: $other})
		MERGE (u1)-[:PARTICIPATES_IN]->(c)
		MERGE (u2)-[:PARTICIPATES_IN]->(c)
		RETURN c.id as id, c.created_at as created_at
	`

	record, err := r.store.RunSingle(ctx, query, map[string]any{
		"cid":   cid,
		"now":   isoNow(),
		"me":    me,
		"other": other,
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.New(apperrors.KindPersistence, "failed to create conversation")
	}

	return &Conversation{
		ID:        getStringFromRecord(record, "id"),
		CreatedAt: getStringFromRecord(record, "created_at"),
	}, nil
}

// Participants returns the two participant ids of a conversation. A missing
// conversation and one with the wrong participant count are treated alike:
// both are not found.
func (r *Repository) Participants(ctx context.Context, conversationID string) ([]string, error) {
	query := `
		MATCH (u:User)-[:PARTICIPATES_IN]->(c:Conversation {id: $cid})
		RETURN u.id as id
	`

	records, err := r.store.Run(ctx, query, map[string]any{"cid": conversationID})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, getStringFromRecord(record, "id"))
	}
	if len(ids) != 2 {
		return nil, apperrors.New(apperrors.KindNotFound, "conversation not found or invalid")
	}
	return ids, nil
}

// ConversationWith returns the existing conversation between two users along
// with the other participant and the latest message, or nil when no such
// conversation exists. It never creates anything.
func (r *Repository) ConversationWith(ctx context.Context, me, other string) (*ConversationSummary, error) {
	query := `
		MATCH (me:User {id: $me})-[:PARTICIPATES_IN]->(c:Conversation)<-[:PARTICIPATES_IN]-(other:User {id: $other})
		OPTIONAL MATCH (c)-[:HAS_MESSAGE]->(m:Message)
		WITH c, other, m
		ORDER BY m.timestamp DESC
		WITH c, other, head(collect(m)) AS last
		RETURN c.id AS cid, other.id AS oid, other.username AS ousername,
		       COALESCE(other.profile_pic, other.avatar_url, '') AS opic,
		       last.id AS mid,
		       last.content AS mcontent,
		       COALESCE(last.timestamp, last.created_at) AS mcreated,
		       last.sender_id AS msender
	`

	record, err := r.store.RunSingle(ctx, query, map[string]any{"me": me, "other": other})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	summary := summaryFromRecord(record)
	return &summary, nil
}

// ListConversations returns the caller's conversations ordered by latest
// message timestamp descending, paginated by limit/offset. Conversations with
// no messages yet come last, with a nil LastMessage.
func (r *Repository) ListConversations(ctx context.Context, me string, limit, offset int) ([]ConversationSummary, error) {
	query := `
		MATCH (me:User {id: $me})-[:PARTICIPATES_IN]->(c:Conversation)<-[:PARTICIPATES_IN]-(other:User)
		WHERE other.id <> $me
		OPTIONAL MATCH (c)-[:HAS_MESSAGE]->(m:Message)
		WITH c, other, m
		ORDER BY m.timestamp DESC
		WITH c, other, head(collect(m)) AS last
		RETURN c.id AS cid, other.id AS oid, other.username AS ousername,
		       COALESCE(other.profile_pic, other.avatar_url, '') AS opic,
		       last.id AS mid,
		       last.content AS mcontent,
		       COALESCE(last.timestamp, last.created_at) AS mcreated,
		       last.sender_id AS msender
		ORDER BY last IS NULL, mcreated DESC
		SKIP $offset LIMIT $limit
	`

	records, err := r.store.Run(ctx, query, map[string]any{
		"me":     me,
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, summaryFromRecord(record))
	}
	return summaries, nil
}

// PruneConversationIfEmpty detach-deletes the conversation when it no longer
// has any messages. Conversations are garbage-collected this way rather than
// reference-counted.
func (r *Repository) PruneConversationIfEmpty(ctx context.Context, conversationID string) error {
	query := `
		MATCH (c:Conversation {id: $cid})
		WHERE NOT (c)-[:HAS_MESSAGE]->()
		DETACH DELETE c
	`

	_, err := r.store.Run(ctx, query, map[string]any{"cid": conversationID})
	if err != nil {
		return err
	}
	r.logger.Debug("Pruned conversation if empty", zap.String("conversation_id", conversationID))
	return nil
}

// PruneEmptyConversations detach-deletes every conversation left without
// messages, used after bulk per-user deletions.
func (r *Repository) PruneEmptyConversations(ctx context.Context) error {
	query := `
		MATCH (c:Conversation)
		WHERE NOT (c)-[:HAS_MESSAGE]->()
		DETACH DELETE c
	`

	_, err := r.store.Run(ctx, query, nil)
	return err
}

func summaryFromRecord(record *neo4j.Record) ConversationSummary {
	summary := ConversationSummary{
		ID: getStringFromRecord(record, "cid"),
		User: User{
			ID:         getStringFromRecord(record, "oid"),
			Username:   getStringFromRecord(record, "ousername"),
			ProfilePic: getStringFromRecord(record, "opic"),
		},
	}
	if mid := getStringFromRecord(record, "mid"); mid != "" {
		summary.LastMessage = &Message{
			ID:        mid,
			Content:   getStringFromRecord(record, "mcontent"),
			Timestamp: getStringFromRecord(record, "mcreated"),
			SenderID:  getStringFromRecord(record, "msender"),
		}
	}
	return summary
}
