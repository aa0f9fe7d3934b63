package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("tvly-test", time.Second)
	require.NoError(t, err)
	client.BaseURL = server.URL
	return client
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("", 0)
	assert.Error(t, err)

	client, err := NewClient("tvly-test", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.BaseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestSearch_AppliesDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req SearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "golang release", req.Query)
		assert.Equal(t, "basic", req.SearchDepth)
		assert.Equal(t, 5, req.MaxResults)
		assert.Equal(t, "general", req.Topic)

		w.Write([]byte(`{"query": "golang release", "results": [{"title": "Go 1.25", "url": "https://go.dev/doc/go1.25", "content": "Release notes", "score": 0.9}], "response_time": 0.4}`))
	})

	resp, err := client.Search(context.Background(), &SearchRequest{Query: "golang release"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Go 1.25", resp.Results[0].Title)
}

func TestSearch_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), &SearchRequest{Query: "x"})
	assert.EqualError(t, err, "API returned status 401 Unauthorized")
}

func TestExtract(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		w.Write([]byte(`{"results": [{"url": "https://go.dev", "raw_content": "Build simple, secure, scalable systems with Go"}]}`))
	})

	res := client.Tools()[1].Invoke(context.Background(), map[string]any{"urls": []any{"https://go.dev"}})
	require.IsType(t, &ExtractResponse{}, res)
	assert.Contains(t, res.(*ExtractResponse).Results[0].RawContent, "scalable")

	res = client.Tools()[1].Invoke(context.Background(), map[string]any{"urls": []any{}})
	assert.Contains(t, res, "invalid arguments")
}
