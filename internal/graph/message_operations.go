package graph

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "hays/backend/pkg/errors"
)

// ============================================================================
// Message Operations
// ============================================================================

// CreateMessage persists a message and both of its graph edges (SENT from the
// sender, HAS_MESSAGE from the conversation) in a single write. The timestamp
// is assigned here, at the moment of persistence.
func (r *Repository) CreateMessage(ctx context.Context, conversationID, senderID, receiverID, content string) (*Message, error) {
	messageID := uuid.New().String()
	now := isoNow()

	query := `
		MATCH (c:Conversation {id: $cid})
		MATCH (s:User {id: $sid})
		MATCH (r:User {id: $rid})
		CREATE (m:Message {id: $mid, content: $content, timestamp: $now, created_at: $now, sender_id: $sid, receiver_id: $rid})
		MERGE (s)-[:SENT]->(m)
		MERGE (c)-[:HAS_MESSAGE]->(m)
		RETURN m.id as id, m.content as content, m.timestamp as timestamp, m.sender_id as sender_id
	`

	record, err := r.store.RunSingle(ctx, query, map[string]any{
		"cid":     conversationID,
		"sid":     senderID,
		"rid":     receiverID,
		"mid":     messageID,
		"content": content,
		"now":     now,
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.New(apperrors.KindPersistence, "failed to create message")
	}

	msg := &Message{
		ID:        getStringFromRecord(record, "id"),
		Content:   getStringFromRecord(record, "content"),
		Timestamp: getStringFromRecord(record, "timestamp"),
		SenderID:  getStringFromRecord(record, "sender_id"),
	}
	r.logger.Debug("Message persisted",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", msg.ID),
	)
	return msg, nil
}

// History returns all messages of a conversation in chronological order. The
// store's persisted timestamps are the source of truth for ordering; ties
// break by message id.
func (r *Repository) History(ctx context.Context, conversationID string) ([]Message, error) {
	query := `
		MATCH (c:Conversation {id: $cid})-[:HAS_MESSAGE]->(m:Message)
		RETURN m.id as id, m.content as content, COALESCE(m.timestamp, m.created_at) as timestamp, m.sender_id as sender_id
		ORDER BY timestamp ASC, id ASC
	`

	records, err := r.store.Run(ctx, query, map[string]any{"cid": conversationID})
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, Message{
			ID:        getStringFromRecord(record, "id"),
			Content:   getStringFromRecord(record, "content"),
			Timestamp: getStringFromRecord(record, "timestamp"),
			SenderID:  getStringFromRecord(record, "sender_id"),
		})
	}
	return messages, nil
}

// MarkRead adds a READ_BY edge from the user to every message in the
// conversation addressed to them that lacks one, returning how many were
// newly marked. Re-invocation is safe and returns 0 when nothing is unread.
//
// Each call re-scans the conversation's addressed messages rather than
// keeping a per-participant high-water mark; for very long conversations
// that scan is the dominant cost.
func (r *Repository) MarkRead(ctx context.Context, conversationID, userID string) (int, error) {
	query := `
		MATCH (u:User {id: $uid})
		MATCH (:Conversation {id: $cid})-[:HAS_MESSAGE]->(m:Message {receiver_id: $uid})
		WHERE NOT (u)-[:READ_BY]->(m)
		WITH u, m
		MERGE (u)-[:READ_BY]->(m)
		RETURN count(m) as marked
	`

	record, err := r.store.RunSingle(ctx, query, map[string]any{
		"uid": userID,
		"cid": conversationID,
	})
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, nil
	}
	return getIntFromRecord(record, "marked"), nil
}

// CountByConversation returns how many messages a conversation holds.
func (r *Repository) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	query := `
		MATCH (c:Conversation {id: $cid})-[:HAS_MESSAGE]->(m:Message)
		RETURN count(m) as cnt
	`

	record, err := r.store.RunSingle(ctx, query, map[string]any{"cid": conversationID})
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, nil
	}
	return getIntFromRecord(record, "cnt"), nil
}

// CountBySender returns how many messages a user has sent.
func (r *Repository) CountBySender(ctx context.Context, userID string) (int, error) {
	query := `
		MATCH (:User {id: $uid})-[:SENT]->(m:Message)
		RETURN count(m) as cnt
	`

	record, err := r.store.RunSingle(ctx, query, map[string]any{"uid": userID})
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, nil
	}
	return getIntFromRecord(record, "cnt"), nil
}

// DeleteByConversation detach-deletes every message in a conversation.
func (r *Repository) DeleteByConversation(ctx context.Context, conversationID string) error {
	query := `
		MATCH (c:Conversation {id: $cid})-[:HAS_MESSAGE]->(m:Message)
		DETACH DELETE m
	`

	_, err := r.store.Run(ctx, query, map[string]any{"cid": conversationID})
	return err
}

// DeleteBySender detach-deletes every message sent by a user. The user node
// itself is left in place.
func (r *Repository) DeleteBySender(ctx context.Context, userID string) error {
	query := `
		MATCH (:User {id: $uid})-[:SENT]->(m:Message)
		DETACH DELETE m
	`

	_, err := r.store.Run(ctx, query, map[string]any{"uid": userID})
	return err
}
