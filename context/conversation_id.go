package context

import (
	stdctx "context"

	"github.com/google/uuid"
)

// NewConversationID generates a new unique conversation ID
func NewConversationID() string {
	return uuid.New().String()
}

// WithConversationID adds a conversation ID to the context
func WithConversationID(parent stdctx.Context, conversationID string) stdctx.Context {
	return stdctx.WithValue(parent, ConversationIDKey, conversationID)
}

// ConversationIDFromContext extracts the conversation ID from the context
func ConversationIDFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ConversationIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureConversationID returns ctx unchanged if it already carries a
// conversation ID, otherwise a child context with a fresh one.
func EnsureConversationID(ctx stdctx.Context) (stdctx.Context, string) {
	if id := ConversationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewConversationID()
	return WithConversationID(ctx, id), id
}
