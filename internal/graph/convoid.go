package graph

// conversationIDPrefix namespaces conversation ids in the store so they can
// never collide with user or message ids.
const conversationIDPrefix = "convo:"

// ConversationID derives the canonical id for the conversation between two
// users. The pair is unordered: the ids are sorted lexicographically before
// joining, so ConversationID(a, b) == ConversationID(b, a). Given globally
// unique participant ids, distinct pairs always yield distinct conversation
// ids. The derived id doubles as the store's primary key, which is what makes
// conversation creation naturally idempotent.
func ConversationID(a, b string) string {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	return conversationIDPrefix + lo + ":" + hi
}
