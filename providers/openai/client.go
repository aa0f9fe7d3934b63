// Package openai implements llm.Client on the OpenAI Chat Completions API
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/tools"
)

// Client handles OpenAI chat completion requests using the official SDK
type Client struct {
	Model  string
	client openai.Client
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a new OpenAI client. baseURL may be empty.
// The SDK's own retries are disabled; wrap the client with llm.WithRetry.
func NewClient(apiKey, model, baseURL string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &Client{
		Model:  model,
		client: openai.NewClient(reqOpts...),
	}, nil
}

// Complete sends the conversation with the tool schemas and returns the first choice
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	model := req.Model
	if model == "" {
		model = c.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
		params.ParallelToolCalls = openai.Bool(false)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	completion := fromChoice(resp.Choices[0])
	completion.Usage = llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	return completion, nil
}

func toTools(schemas []tools.Schema) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(schemas))
	for _, s := range schemas {
		fn := openai.FunctionDefinitionParam{
			Name:       s.Name,
			Parameters: openai.FunctionParameters(s.Parameters),
		}
		if s.Description != "" {
			fn.Description = openai.String(s.Description)
		}
		out = append(out, openai.ChatCompletionToolParam{Function: fn})
	}
	return out
}

func toMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case llm.RoleUser:
			out = append(out, openai.UserMessage(m.Text()))
		case llm.RoleAssistant:
			out = append(out, toAssistant(m))
		case llm.RoleFunction:
			if m.CallID != "" {
				out = append(out, openai.ToolMessage(m.Text(), m.CallID))
				continue
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfFunction: &openai.ChatCompletionFunctionMessageParam{
					Name:    m.Name,
					Content: openai.String(m.Text()),
				},
			})
		}
	}
	return out
}

func toAssistant(m llm.Message) openai.ChatCompletionMessageParamUnion {
	msg := &openai.ChatCompletionAssistantMessageParam{}
	if m.Content != nil {
		msg.Content.OfString = openai.String(*m.Content)
	}
	if call := m.FunctionCall; call != nil {
		if call.ID != "" {
			msg.ToolCalls = []openai.ChatCompletionMessageToolCallParam{{
				ID: call.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			}}
		} else {
			msg.FunctionCall = openai.ChatCompletionAssistantMessageParamFunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			}
		}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: msg}
}

// fromChoice maps tool_calls and the legacy function_call to a single
// function_call completion. Only the first tool call is used.
func fromChoice(choice openai.ChatCompletionChoice) *llm.Completion {
	msg := llm.Message{Role: llm.RoleAssistant}
	if choice.Message.Content != "" {
		msg.Content = llm.String(choice.Message.Content)
	}

	reason := llm.FinishReason(choice.FinishReason)
	switch {
	case len(choice.Message.ToolCalls) > 0:
		tc := choice.Message.ToolCalls[0]
		msg.FunctionCall = &llm.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
		if reason == "tool_calls" || reason == llm.FinishStop {
			reason = llm.FinishFunctionCall
		}
	case choice.Message.FunctionCall.Name != "":
		fc := choice.Message.FunctionCall
		msg.FunctionCall = &llm.FunctionCall{Name: fc.Name, Arguments: fc.Arguments}
	}
	if reason == "tool_calls" {
		reason = llm.FinishFunctionCall
	}

	return &llm.Completion{FinishReason: reason, Message: msg}
}

// classify marks client errors other than rate limits as permanent
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
			return llm.Permanent(fmt.Errorf("openai: %w", err))
		}
	}
	return fmt.Errorf("openai: %w", err)
}
