package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/tools"
)

func TestNewClient(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		client := NewClient("", "")
		assert.NotNil(t, client)
		assert.Equal(t, DefaultBaseURL, client.BaseURL)
		assert.Equal(t, "", client.Model)
		assert.NotNil(t, client.client)
	})

	t.Run("CustomValues", func(t *testing.T) {
		client := NewClient("http://custom:8080/", "custom-model")
		assert.Equal(t, "http://custom:8080", client.BaseURL)
		assert.Equal(t, "custom-model", client.Model)
	})
}

func TestComplete_ToolCall(t *testing.T) {
	var captured ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{
			"model": "llama3.1",
			"message": {"role": "assistant", "content": "", "tool_calls": [
				{"function": {"name": "weather", "arguments": {"latitude": 48.85, "longitude": 2.35}}}
			]},
			"done": true, "done_reason": "stop", "prompt_eval_count": 30, "eval_count": 9
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "llama3.1")
	temp := 0.2
	completion, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{
			llm.SystemMessage("be brief"),
			llm.UserMessage("weather in paris?"),
			{Role: llm.RoleAssistant, FunctionCall: &llm.FunctionCall{Name: "geocode", Arguments: `{"address":"Paris"}`}},
			llm.FunctionResultMessage("geocode", "", `{"res":[]}`),
		},
		Tools:       []tools.Schema{{Name: "weather", Description: "Get weather", Parameters: map[string]any{"type": "object"}}},
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, llm.FinishFunctionCall, completion.FinishReason)
	require.NotNil(t, completion.Message.FunctionCall)
	assert.Equal(t, "weather", completion.Message.FunctionCall.Name)
	assert.JSONEq(t, `{"latitude":48.85,"longitude":2.35}`, completion.Message.FunctionCall.Arguments)
	assert.Equal(t, int64(30), completion.Usage.PromptTokens)

	assert.Equal(t, "llama3.1", captured.Model)
	assert.False(t, captured.Stream)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "geocode", captured.Messages[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", captured.Messages[3].Role)
	assert.Equal(t, "geocode", captured.Messages[3].ToolName)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "weather", captured.Tools[0].Function.Name)
	assert.Equal(t, 0.2, captured.Options["temperature"])
}

func TestComplete_StopAndLength(t *testing.T) {
	reasons := map[string]llm.FinishReason{"stop": llm.FinishStop, "length": llm.FinishLength, "": llm.FinishStop}
	for doneReason, want := range reasons {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message": {"role": "assistant", "content": "hi"}, "done": true, "done_reason": "` + doneReason + `"}`))
		}))

		completion, err := NewClient(srv.URL, "m").Complete(context.Background(), llm.Request{Messages: []llm.Message{llm.UserMessage("hi")}})
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, want, completion.FinishReason, doneReason)
		assert.Equal(t, "hi", completion.Message.Text())
	}
}

func TestComplete_ErrorsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "missing").Complete(context.Background(), llm.Request{Messages: []llm.Message{llm.UserMessage("hi")}})
	require.Error(t, err)
	var perm *llm.PermanentError
	assert.True(t, errors.As(err, &perm))
	assert.Contains(t, err.Error(), "status 404")

	unavailable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unavailable.Close()

	_, err = NewClient(unavailable.URL, "m").Complete(context.Background(), llm.Request{Messages: []llm.Message{llm.UserMessage("hi")}})
	require.Error(t, err)
	assert.True(t, llm.DefaultIsRetryable(err))
}

func TestComplete_Context(t *testing.T) {
	client := NewClient("http://test", "test-model")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, llm.Request{Messages: []llm.Message{llm.UserMessage("hi")}})
	assert.Error(t, err)
	assert.False(t, llm.DefaultIsRetryable(err))
}
