// Package gemini implements llm.Client on the Gemini API
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/tools"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client handles Gemini API requests using the official SDK
type Client struct {
	Model  string
	client *genai.Client
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a new Gemini API client
// Returns an error if the client cannot be initialized
func NewClient(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		Model:  model,
		client: client,
	}, nil
}

// Complete replays all but the last message as chat history and sends the last one
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not initialized")
	}

	name := req.Model
	if name == "" {
		name = c.Model
	}
	model := c.client.GenerativeModel(name)
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	system, contents := toContents(req.Messages)
	if system != nil {
		model.SystemInstruction = system
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, classify(err)
	}
	return fromResponse(resp)
}

// Close closes the Gemini client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func toDeclarations(schemas []tools.Schema) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  toSchema(s.Parameters),
		})
	}
	return out
}

// toSchema converts the subset of JSON Schema that Gemini understands
func toSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if f, ok := m["format"].(string); ok {
		s.Format = f
	}
	for _, e := range toSlice(m["enum"]) {
		if str, ok := e.(string); ok {
			s.Enum = append(s.Enum, str)
		}
	}
	for _, r := range toSlice(m["required"]) {
		if str, ok := r.(string); ok {
			s.Required = append(s.Required, str)
		}
	}
	if props, ok := m["properties"].(map[string]any); ok && len(props) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = toSchema(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toSchema(items)
	}
	return s
}

func toSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

// toContents splits off system messages and maps the rest to Gemini roles.
// Function results become user-role FunctionResponse parts.
func toContents(messages []llm.Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.Text(m.Text()))
		case llm.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Text())}})
		case llm.RoleAssistant:
			var parts []genai.Part
			if m.Text() != "" {
				parts = append(parts, genai.Text(m.Text()))
			}
			if call := m.FunctionCall; call != nil {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(call.Arguments), &args)
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: args})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case llm.RoleFunction:
			response := map[string]any{}
			if err := json.Unmarshal([]byte(m.Text()), &response); err != nil {
				response = map[string]any{"res": m.Text()}
			}
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.FunctionResponse{Name: m.Name, Response: response}},
			})
		}
	}
	return system, contents
}

func fromResponse(resp *genai.GenerateContentResponse) (*llm.Completion, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	cand := resp.Candidates[0]

	msg := llm.Message{Role: llm.RoleAssistant}
	var text string
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				text += string(p)
			case genai.FunctionCall:
				if msg.FunctionCall != nil {
					continue
				}
				args, err := json.Marshal(p.Args)
				if err != nil {
					return nil, fmt.Errorf("failed to encode function call args: %w", err)
				}
				msg.FunctionCall = &llm.FunctionCall{Name: p.Name, Arguments: string(args)}
			}
		}
	}
	if text != "" {
		msg.Content = llm.String(text)
	}

	completion := &llm.Completion{Message: msg, FinishReason: fromFinishReason(cand.FinishReason, msg.FunctionCall != nil)}
	if resp.UsageMetadata != nil {
		completion.Usage = llm.Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return completion, nil
}

func fromFinishReason(r genai.FinishReason, hasCall bool) llm.FinishReason {
	switch {
	case hasCall:
		return llm.FinishFunctionCall
	case r == genai.FinishReasonStop || r == genai.FinishReasonUnspecified:
		return llm.FinishStop
	case r == genai.FinishReasonMaxTokens:
		return llm.FinishLength
	default:
		return llm.FinishReason(r.String())
	}
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
			return llm.Permanent(fmt.Errorf("gemini: %w", err))
		}
	}
	return fmt.Errorf("gemini: %w", err)
}
