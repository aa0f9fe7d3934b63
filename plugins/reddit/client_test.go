package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingBody = `{
	"kind": "Listing",
	"data": {"children": [
		{"kind": "t3", "data": {"id": "abc", "subreddit": "golang", "title": "Go 1.25 released", "author": "gopher", "score": 512, "num_comments": 40}},
		{"kind": "t1", "data": {"id": "comment"}},
		{"kind": "t3", "data": {"id": "def", "subreddit": "golang", "title": "Generics tips", "author": "someone", "score": 12}}
	]}
}`

func TestGetPosts_Subreddit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/golang/hot.json", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	res, err := client.Listing(context.Background(), ListingInput{Subreddit: "golang", Type: "hot"})
	require.NoError(t, err)

	posts := res.([]Post)
	require.Len(t, posts, 2)
	assert.Equal(t, "Go 1.25 released", posts[0].Title)
	assert.Equal(t, 512, posts[0].Score)
	assert.Equal(t, "def", posts[1].ID)
}

func TestGetPosts_FrontPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/top.json", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	_, err := client.GetPosts(context.Background(), "", "top", 3)
	require.NoError(t, err)
}

func TestGetPosts_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	_, err := client.GetPosts(context.Background(), "golang", "new", 10)
	assert.EqualError(t, err, "API request failed with status 429")
}

func TestTool_AppliesDefaultLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	res := client.Tools()[0].Invoke(context.Background(), map[string]any{"type": "rising"})
	assert.Len(t, res, 2)
}
