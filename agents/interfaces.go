package agents

import (
	"context"
	"time"

	"github.com/va6996/aifns/llm"
)

// Conversation runs a transcript to its final answer. The CLI and the
// HTTP API depend on this rather than on *Orchestrator.
type Conversation interface {
	Run(ctx context.Context, messages []llm.Message) (*Result, error)
}

// ToolCall is one dispatched capability invocation, as seen by a Recorder
type ToolCall struct {
	ConversationID string
	Turn           int
	Capability     string
	Arguments      string
	Result         string
	Duration       time.Duration
}

// Recorder receives every capability invocation. Errors are logged and
// never end the conversation.
type Recorder interface {
	RecordToolCall(ctx context.Context, call ToolCall) error
}
