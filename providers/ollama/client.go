package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/tools"
)

const DefaultBaseURL = "http://localhost:11434"

// Client handles Ollama chat API requests
type Client struct {
	BaseURL string
	Model   string
	client  *http.Client
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a new Ollama API client
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  &http.Client{},
	}
}

// ChatRequest represents the payload for the Ollama chat API
type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Tools    []Tool         `json:"tools,omitempty"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ChatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
}

type ToolCall struct {
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatResponse represents the non-streaming response from the chat API
type ChatResponse struct {
	Model           string      `json:"model"`
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int64       `json:"prompt_eval_count"`
	EvalCount       int64       `json:"eval_count"`
}

// Complete sends the conversation to /api/chat
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	model := req.Model
	if model == "" {
		model = c.Model
	}

	body := ChatRequest{
		Model:    model,
		Messages: toMessages(req.Messages),
		Tools:    toTools(req.Tools),
		Stream:   false,
	}
	options := map[string]any{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(options) > 0 {
		body.Options = options
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, llm.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("ollama request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusRequestTimeout {
			return nil, llm.Permanent(err)
		}
		return nil, err
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return fromResponse(chatResp), nil
}

func toTools(schemas []tools.Schema) []Tool {
	if len(schemas) == 0 {
		return nil
	}
	out := make([]Tool, len(schemas))
	for i, s := range schemas {
		out[i] = Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		}
	}
	return out
}

func toMessages(messages []llm.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleFunction:
			out = append(out, ChatMessage{Role: "tool", Content: m.Text(), ToolName: m.Name})
		case llm.RoleAssistant:
			msg := ChatMessage{Role: "assistant", Content: m.Text()}
			if m.FunctionCall != nil {
				args := json.RawMessage(m.FunctionCall.Arguments)
				// the chat API wants an object; the model may have sent anything
				if !json.Valid(args) || strings.TrimSpace(m.FunctionCall.Arguments) == "" {
					args = json.RawMessage(`{}`)
				}
				msg.ToolCalls = []ToolCall{{Function: ToolCallFunction{Name: m.FunctionCall.Name, Arguments: args}}}
			}
			out = append(out, msg)
		default:
			out = append(out, ChatMessage{Role: string(m.Role), Content: m.Text()})
		}
	}
	return out
}

// fromResponse maps a chat response. Ollama reports "stop" for tool calls,
// so a present tool call decides the finish reason.
func fromResponse(resp ChatResponse) *llm.Completion {
	msg := llm.Message{Role: llm.RoleAssistant}
	if resp.Message.Content != "" {
		msg.Content = llm.String(resp.Message.Content)
	}

	reason := llm.FinishReason(resp.DoneReason)
	if reason == "" {
		reason = llm.FinishStop
	}
	if len(resp.Message.ToolCalls) > 0 {
		fn := resp.Message.ToolCalls[0].Function
		args := string(fn.Arguments)
		if args == "" || args == "null" {
			args = "{}"
		}
		msg.FunctionCall = &llm.FunctionCall{Name: fn.Name, Arguments: args}
		if reason == llm.FinishStop {
			reason = llm.FinishFunctionCall
		}
	}

	return &llm.Completion{
		FinishReason: reason,
		Message:      msg,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
		},
	}
}
