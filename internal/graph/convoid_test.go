package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationID_Commutative(t *testing.T) {
	assert.Equal(t, ConversationID("u1", "u2"), ConversationID("u2", "u1"))
	assert.Equal(t, ConversationID("alice", "bob"), ConversationID("bob", "alice"))
}

func TestConversationID_Deterministic(t *testing.T) {
	assert.Equal(t, "convo:u1:u2", ConversationID("u1", "u2"))
	assert.Equal(t, "convo:u1:u2", ConversationID("u2", "u1"))
}

func TestConversationID_DistinctPairs(t *testing.T) {
	assert.NotEqual(t, ConversationID("u1", "u2"), ConversationID("u1", "u3"))
	assert.NotEqual(t, ConversationID("u1", "u2"), ConversationID("u2", "u3"))
}
