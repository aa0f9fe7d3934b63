// Package llm defines the provider-neutral conversation types and the
// Client interface implemented by the packages under providers/.
package llm

import (
	"context"

	"github.com/va6996/aifns/tools"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// FunctionCall is the model's request to invoke a capability.
// Arguments is the raw JSON text exactly as the model produced it.
// ID is the provider's call identifier when it has one.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a transcript. Content is nil for an assistant
// message that only carries a function call.
type Message struct {
	Role         Role          `json:"role"`
	Content      *string       `json:"content"`
	Name         string        `json:"name,omitempty"`
	CallID       string        `json:"call_id,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// Text returns the content or "" when it is null
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// String returns a pointer to s, for building Message.Content
func String(s string) *string {
	return &s
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: String(content)}
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: String(content)}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: String(content)}
}

// FunctionResultMessage carries a capability's serialized result back to the model
func FunctionResultMessage(name, callID, content string) Message {
	return Message{Role: RoleFunction, Name: name, CallID: callID, Content: String(content)}
}

type FinishReason string

const (
	FinishStop         FinishReason = "stop"
	FinishLength       FinishReason = "length"
	FinishFunctionCall FinishReason = "function_call"
)

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Completion is one model response. Provider finish reasons that have no
// equivalent above pass through verbatim.
type Completion struct {
	FinishReason FinishReason `json:"finish_reason"`
	Message      Message      `json:"message"`
	Usage        Usage        `json:"usage"`
}

type Request struct {
	Model       string
	Messages    []Message
	Tools       []tools.Schema
	Temperature *float64
	MaxTokens   int64
}

// Client sends a conversation to a remote model and returns one completion
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// ClientFunc adapts a function to Client
type ClientFunc func(ctx context.Context, req Request) (*Completion, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (*Completion, error) {
	return f(ctx, req)
}
