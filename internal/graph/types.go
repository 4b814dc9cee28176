package graph

// User is the shadow record of an identity-provider user, keyed by the
// provider's opaque id.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic"`
}

// Conversation is an exactly-two-party message thread. CreatedAt is set once
// on first creation and never changes.
type Conversation struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// Message is a single message inside a conversation. Timestamp is the RFC3339
// creation time assigned at persistence.
type Message struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	SenderID  string `json:"sender_id"`
}

// ConversationSummary is one row of a user's conversation list: the other
// participant's public profile and the most recent message, if any.
type ConversationSummary struct {
	ID          string   `json:"id"`
	User        User     `json:"user"`
	LastMessage *Message `json:"last_message"`
}
