package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/va6996/aifns/tools"
)

// Reddit rejects requests with default Go user agents
const userAgent = "aifns/1.0 (+https://github.com/va6996/aifns)"

// Client handles Reddit listing requests
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Reddit client
func NewClient() *Client {
	return &Client{
		BaseURL:    "https://www.reddit.com",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Tools returns the reddit capability
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("reddit", "Get stories from reddit", c.Listing),
	}
}

type ListingInput struct {
	Subreddit string `json:"subreddit,omitempty" jsonschema_description:"Subreddit name without the r/ prefix. Empty means the front page."`
	Type      string `json:"type" jsonschema:"enum=hot,enum=new,enum=random,enum=top,enum=rising,enum=controversial"`
	Limit     int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100,default=10"`
}

// Post is the subset of a reddit link we return
type Post struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	SelfText    string  `json:"selftext,omitempty"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data Post   `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Listing fetches posts from a subreddit, or the front page
func (c *Client) Listing(ctx context.Context, input ListingInput) (any, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	return c.GetPosts(ctx, input.Subreddit, input.Type, limit)
}

// GetPosts returns the posts of one listing
func (c *Client) GetPosts(ctx context.Context, subreddit, listingType string, limit int) ([]Post, error) {
	path := "/" + listingType + ".json"
	if sub := strings.TrimPrefix(strings.TrimSpace(subreddit), "r/"); sub != "" {
		path = "/r/" + url.PathEscape(sub) + path
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	posts := make([]Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		posts = append(posts, child.Data)
	}
	return posts, nil
}
