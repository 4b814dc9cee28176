package messaging

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"hays/backend/internal/auth"
	"hays/backend/internal/graph"
	apperrors "hays/backend/pkg/errors"
	"hays/backend/pkg/logger"
)

// Store is the slice of the graph repository the messaging service needs.
type Store interface {
	EnsureUser(ctx context.Context, id, username, profilePic string) error
	EnsureConversation(ctx context.Context, me, other string) (*graph.Conversation, error)
	Participants(ctx context.Context, conversationID string) ([]string, error)
	UserExists(ctx context.Context, id string) (bool, error)
	UserPublic(ctx context.Context, id string) (*graph.User, error)

	CreateMessage(ctx context.Context, conversationID, senderID, receiverID, content string) (*graph.Message, error)
	History(ctx context.Context, conversationID string) ([]graph.Message, error)
	MarkRead(ctx context.Context, conversationID, userID string) (int, error)

	ConversationWith(ctx context.Context, me, other string) (*graph.ConversationSummary, error)
	ListConversations(ctx context.Context, me string, limit, offset int) ([]graph.ConversationSummary, error)

	CountByConversation(ctx context.Context, conversationID string) (int, error)
	CountBySender(ctx context.Context, userID string) (int, error)
	DeleteByConversation(ctx context.Context, conversationID string) error
	DeleteBySender(ctx context.Context, userID string) error
	PruneConversationIfEmpty(ctx context.Context, conversationID string) error
	PruneEmptyConversations(ctx context.Context) error
}

// Notifier pushes events into a conversation-scoped fan-out room. Delivery is
// best effort; implementations must not block.
type Notifier interface {
	Publish(room, event string, payload any)
}

// EventMessageNew is the realtime event emitted after a message is persisted.
const EventMessageNew = "message:new"

// NewMessageEvent is the payload published to a conversation room after a
// successful send.
type NewMessageEvent struct {
	ConversationID string         `json:"conversation_id"`
	Message        *graph.Message `json:"message"`
}

// SendRequest carries a send-message call. Either ConversationID (existing
// thread) or UserID (target participant) must be set; ConversationID wins
// when both are.
type SendRequest struct {
	ConversationID string
	UserID         string
	Content        string
}

// SendResult is the outcome of a successful send.
type SendResult struct {
	ConversationID string         `json:"conversation_id"`
	Message        *graph.Message `json:"message"`
}

// StartResult is the outcome of start-or-get conversation.
type StartResult struct {
	ConversationID string      `json:"conversation_id"`
	User           *graph.User `json:"user"`
}

// Service implements the messaging operations on top of the graph store and
// the realtime notifier.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a messaging service. notifier may be nil, in which case
// realtime delivery is skipped entirely.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger.Named("messaging"),
	}
}

// Send validates and persists a new message, creating the conversation when
// only a target user is given. Realtime delivery is fire and forget: the
// result reflects persistence only.
func (s *Service) Send(ctx context.Context, caller auth.Caller, req SendRequest) (*SendResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.New(apperrors.KindValidation, "message content cannot be empty")
	}
	if req.ConversationID == "" && req.UserID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "either conversation_id or user_id must be provided")
	}

	me := caller.ID
	if req.ConversationID == "" && req.UserID == me {
		return nil, apperrors.New(apperrors.KindSelfReference, "cannot message yourself")
	}

	if err := s.store.EnsureUser(ctx, me, caller.Username, caller.ProfilePic); err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	var receiver string
	if conversationID != "" {
		participants, err := s.store.Participants(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		other, ok := otherOf(participants, me)
		if !ok {
			return nil, apperrors.New(apperrors.KindAuthorization, "not a participant in this conversation")
		}
		receiver = other
	} else {
		receiver = req.UserID
		if err := s.store.EnsureUser(ctx, receiver, "", ""); err != nil {
			return nil, err
		}
		convo, err := s.store.EnsureConversation(ctx, me, receiver)
		if err != nil {
			return nil, err
		}
		conversationID = convo.ID
	}

	msg, err := s.store.CreateMessage(ctx, conversationID, me, receiver, content)
	if err != nil {
		return nil, err
	}

	s.notify(conversationID, msg)

	return &SendResult{ConversationID: conversationID, Message: msg}, nil
}

// History returns the conversation's messages ascending by timestamp. Only
// participants may read it.
func (s *Service) History(ctx context.Context, caller auth.Caller, conversationID string) ([]graph.Message, error) {
	if err := s.requireParticipant(ctx, caller.ID, conversationID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, conversationID)
}

// StartConversation idempotently creates (or finds) the conversation with the
// given user and returns it together with that user's public profile.
func (s *Service) StartConversation(ctx context.Context, caller auth.Caller, otherID string) (*StartResult, error) {
	if otherID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "user_id is required")
	}
	if otherID == caller.ID {
		return nil, apperrors.New(apperrors.KindSelfReference, "cannot start conversation with yourself")
	}

	if err := s.store.EnsureUser(ctx, caller.ID, caller.Username, caller.ProfilePic); err != nil {
		return nil, err
	}
	if err := s.store.EnsureUser(ctx, otherID, "", ""); err != nil {
		return nil, err
	}
	convo, err := s.store.EnsureConversation(ctx, caller.ID, otherID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UserPublic(ctx, otherID)
	if err != nil {
		return nil, err
	}

	return &StartResult{ConversationID: convo.ID, User: user}, nil
}

// ConversationWith looks up the existing conversation with a specific user
// without creating one. A nil summary means none exists.
func (s *Service) ConversationWith(ctx context.Context, caller auth.Caller, otherID string) (*graph.ConversationSummary, error) {
	if otherID == caller.ID {
		return nil, apperrors.New(apperrors.KindSelfReference, "cannot open conversation with yourself")
	}
	return s.store.ConversationWith(ctx, caller.ID, otherID)
}

// ListConversations returns the caller's conversations, most recent message
// first, paginated.
func (s *Service) ListConversations(ctx context.Context, caller auth.Caller, limit, offset int) ([]graph.ConversationSummary, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListConversations(ctx, caller.ID, limit, offset)
}

// MarkRead idempotently marks the conversation's messages addressed to the
// caller as read and returns the newly-marked count.
func (s *Service) MarkRead(ctx context.Context, caller auth.Caller, conversationID string) (int, error) {
	if conversationID == "" {
		return 0, apperrors.New(apperrors.KindValidation, "conversation_id is required")
	}
	if err := s.requireParticipant(ctx, caller.ID, conversationID); err != nil {
		return 0, err
	}
	return s.store.MarkRead(ctx, conversationID, caller.ID)
}

// DeleteConversationMessages deletes every message in a conversation and
// prunes the conversation itself once empty. Participants and admins only.
func (s *Service) DeleteConversationMessages(ctx context.Context, caller auth.Caller, conversationID string) (int, error) {
	if conversationID == "" {
		return 0, apperrors.New(apperrors.KindValidation, "conversation_id is required")
	}

	participants, err := s.store.Participants(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if _, ok := otherOf(participants, caller.ID); !ok && !caller.IsAdmin() {
		return 0, apperrors.New(apperrors.KindAuthorization, "not authorized to delete this conversation's messages")
	}

	count, err := s.store.CountByConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if err := s.store.DeleteByConversation(ctx, conversationID); err != nil {
		return 0, err
	}
	if err := s.store.PruneConversationIfEmpty(ctx, conversationID); err != nil {
		return 0, err
	}

	s.logger.Info("Deleted conversation messages",
		zap.String("conversation_id", conversationID),
		zap.Int("deleted", count),
	)
	return count, nil
}

// DeleteUserMessages deletes every message the given user has sent, then
// prunes conversations left empty. The user themselves or an admin only; the
// user node is not deleted.
func (s *Service) DeleteUserMessages(ctx context.Context, caller auth.Caller, userID string) (int, error) {
	if userID == "" {
		return 0, apperrors.New(apperrors.KindValidation, "user_id is required")
	}
	if caller.ID != userID && !caller.IsAdmin() {
		return 0, apperrors.New(apperrors.KindAuthorization, "not authorized to delete messages for this user")
	}

	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, apperrors.Newf(apperrors.KindNotFound, "user not found: %s", userID)
	}

	count, err := s.store.CountBySender(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.store.DeleteBySender(ctx, userID); err != nil {
		return 0, err
	}
	if err := s.store.PruneEmptyConversations(ctx); err != nil {
		return 0, err
	}

	s.logger.Info("Deleted user messages",
		zap.String("user_id", userID),
		zap.Int("deleted", count),
	)
	return count, nil
}

// notify publishes the new-message event. Failures never reach the caller;
// the HTTP response already reflects successful persistence.
func (s *Service) notify(conversationID string, msg *graph.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(conversationID, EventMessageNew, NewMessageEvent{
		ConversationID: conversationID,
		Message:        msg,
	})
}

// requireParticipant resolves the conversation's participants and verifies
// the caller is one of them.
func (s *Service) requireParticipant(ctx context.Context, callerID, conversationID string) error {
	participants, err := s.store.Participants(ctx, conversationID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if p == callerID {
			return nil
		}
	}
	return apperrors.New(apperrors.KindAuthorization, "not a participant in this conversation")
}

// otherOf returns the participant that is not me, and whether me was found
// among the participants at all.
func otherOf(participants []string, me string) (string, bool) {
	found := false
	other := ""
	for _, p := range participants {
		if p == me {
			found = true
		} else {
			other = p
		}
	}
	return other, found
}
