// Package anthropic implements llm.Client on the Anthropic Messages API
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/tools"
)

const DefaultMaxTokens = 1024

type Client struct {
	Model     string
	MaxTokens int64
	client    anthropic.Client
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a Messages API client. The SDK's own retries are
// disabled; wrap the client with llm.WithRetry.
func NewClient(apiKey, model string, maxTokens int64, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &Client{
		Model:     model,
		MaxTokens: maxTokens,
		client:    anthropic.NewClient(reqOpts...),
	}, nil
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	model := req.Model
	if model == "" {
		model = c.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.MaxTokens
	}

	system, messages := toMessages(req.Messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  messages,
		System:    system,
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	return fromMessage(msg), nil
}

func toTools(schemas []tools.Schema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		input := anthropic.ToolInputSchemaParam{Properties: s.Parameters["properties"]}
		if req, ok := s.Parameters["required"].([]any); ok {
			for _, r := range req {
				if name, ok := r.(string); ok {
					input.Required = append(input.Required, name)
				}
			}
		}
		tool := &anthropic.ToolParam{Name: s.Name, InputSchema: input}
		if s.Description != "" {
			tool.Description = anthropic.String(s.Description)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: tool})
	}
	return out
}

// toMessages lifts system messages into the system prompt and merges
// consecutive messages of the same role, so tool results ride in user turns.
func toMessages(messages []llm.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var out []anthropic.MessageParam

	push := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Text()})
		case llm.RoleUser:
			push(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(m.Text()))
		case llm.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Text() != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text()))
			}
			if call := m.FunctionCall; call != nil {
				input := json.RawMessage(call.Arguments)
				if strings.TrimSpace(call.Arguments) == "" || !json.Valid(input) {
					input = json.RawMessage(`{}`)
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    call.ID,
					Name:  call.Name,
					Input: input,
				}})
			}
			push(anthropic.MessageParamRoleAssistant, blocks...)
		case llm.RoleFunction:
			push(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(m.CallID, m.Text(), false))
		}
	}
	return system, out
}

func fromMessage(msg *anthropic.Message) *llm.Completion {
	out := llm.Message{Role: llm.RoleAssistant}
	var text strings.Builder
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			if out.FunctionCall == nil {
				out.FunctionCall = &llm.FunctionCall{ID: v.ID, Name: v.Name, Arguments: v.JSON.Input.Raw()}
			}
		}
	}
	if text.Len() > 0 {
		out.Content = llm.String(text.String())
	}

	return &llm.Completion{
		FinishReason: fromStopReason(msg.StopReason),
		Message:      out,
		Usage: llm.Usage{
			PromptTokens:     msg.Usage.InputTokens,
			CompletionTokens: msg.Usage.OutputTokens,
		},
	}
}

func fromStopReason(r anthropic.StopReason) llm.FinishReason {
	switch r {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return llm.FinishStop
	case anthropic.StopReasonMaxTokens:
		return llm.FinishLength
	case anthropic.StopReasonToolUse:
		return llm.FinishFunctionCall
	default:
		return llm.FinishReason(r)
	}
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
			return llm.Permanent(fmt.Errorf("anthropic: %w", err))
		}
	}
	return fmt.Errorf("anthropic: %w", err)
}
