package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/tools"
)

func TestNewClient(t *testing.T) {
	t.Run("EmptyAPIKey", func(t *testing.T) {
		client, err := NewClient(context.Background(), "", "gemini-1.5-flash")
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("ValidAPIKey", func(t *testing.T) {
		client, err := NewClient(context.Background(), "test-api-key-12345", "gemini-1.5-flash")
		assert.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, "gemini-1.5-flash", client.Model)

		// Close should not panic, twice
		client.Close()
		client.Close()
	})
}

func TestToDeclarations(t *testing.T) {
	decls := toDeclarations([]tools.Schema{{
		Name:        "hackernews",
		Description: "Get the latest news from hackernews",
		Parameters: map[string]any{
			"type":     "object",
			"required": []any{"type"},
			"properties": map[string]any{
				"type":  map[string]any{"type": "string", "enum": []any{"top", "new"}},
				"limit": map[string]any{"type": "integer", "description": "How many"},
				"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		},
	}})

	require.Len(t, decls, 1)
	d := decls[0]
	assert.Equal(t, "hackernews", d.Name)
	assert.Equal(t, "Get the latest news from hackernews", d.Description)
	require.NotNil(t, d.Parameters)
	assert.Equal(t, genai.TypeObject, d.Parameters.Type)
	assert.Equal(t, []string{"type"}, d.Parameters.Required)
	assert.Equal(t, genai.TypeString, d.Parameters.Properties["type"].Type)
	assert.Equal(t, []string{"top", "new"}, d.Parameters.Properties["type"].Enum)
	assert.Equal(t, genai.TypeInteger, d.Parameters.Properties["limit"].Type)
	assert.Equal(t, "How many", d.Parameters.Properties["limit"].Description)
	assert.Equal(t, genai.TypeArray, d.Parameters.Properties["tags"].Type)
	assert.Equal(t, genai.TypeString, d.Parameters.Properties["tags"].Items.Type)
}

func TestToContents(t *testing.T) {
	system, contents := toContents([]llm.Message{
		llm.SystemMessage("be brief"),
		llm.UserMessage("weather in Oslo?"),
		{Role: llm.RoleAssistant, FunctionCall: &llm.FunctionCall{Name: "weather", Arguments: `{"latitude":59.9,"longitude":10.7}`}},
		llm.FunctionResultMessage("weather", "", `{"res":{"temperature":3}}`),
		llm.FunctionResultMessage("weather", "", `not json`),
	})

	require.NotNil(t, system)
	assert.Equal(t, []genai.Part{genai.Text("be brief")}, system.Parts)

	require.Len(t, contents, 4)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)

	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "weather", call.Name)
	assert.Equal(t, 59.9, call.Args["latitude"])

	resp, ok := contents[2].Parts[0].(genai.FunctionResponse)
	require.True(t, ok)
	assert.Equal(t, "weather", resp.Name)
	assert.Equal(t, map[string]any{"temperature": float64(3)}, resp.Response["res"])

	raw, ok := contents[3].Parts[0].(genai.FunctionResponse)
	require.True(t, ok)
	assert.Equal(t, "not json", raw.Response["res"])
}

func TestFromResponse(t *testing.T) {
	t.Run("FunctionCall", func(t *testing.T) {
		completion, err := fromResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonStop,
				Content: &genai.Content{Parts: []genai.Part{
					genai.FunctionCall{Name: "clock", Args: map[string]any{"timeZone": "Asia/Tokyo"}},
				}},
			}},
			UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 7, CandidatesTokenCount: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, llm.FinishFunctionCall, completion.FinishReason)
		require.NotNil(t, completion.Message.FunctionCall)
		assert.Equal(t, "clock", completion.Message.FunctionCall.Name)
		assert.JSONEq(t, `{"timeZone":"Asia/Tokyo"}`, completion.Message.FunctionCall.Arguments)
		assert.Equal(t, int64(7), completion.Usage.PromptTokens)
	})

	t.Run("Text", func(t *testing.T) {
		completion, err := fromResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonStop,
				Content:      &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Text("there")}},
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, llm.FinishStop, completion.FinishReason)
		assert.Equal(t, "Hello there", completion.Message.Text())
	})

	t.Run("MaxTokens", func(t *testing.T) {
		completion, err := fromResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}},
		})
		require.NoError(t, err)
		assert.Equal(t, llm.FinishLength, completion.FinishReason)
	})

	t.Run("Safety", func(t *testing.T) {
		completion, err := fromResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		})
		require.NoError(t, err)
		assert.NotEqual(t, llm.FinishStop, completion.FinishReason)
		assert.NotEqual(t, llm.FinishLength, completion.FinishReason)
	})

	t.Run("NoCandidates", func(t *testing.T) {
		_, err := fromResponse(&genai.GenerateContentResponse{})
		assert.Error(t, err)
	})
}
