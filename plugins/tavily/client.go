package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/va6996/aifns/log"
)

const (
	DefaultBaseURL = "https://api.tavily.com"
)

// Client is the Tavily API client
type Client struct {
	BaseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Tavily client
func NewClient(apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		BaseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SearchRequest represents a Tavily search request
type SearchRequest struct {
	Query          string   `json:"query" jsonschema_description:"The search query to execute"`
	SearchDepth    string   `json:"search_depth,omitempty" jsonschema:"enum=basic,enum=advanced,default=basic"`
	MaxResults     int      `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5"`
	Topic          string   `json:"topic,omitempty" jsonschema:"enum=general,enum=news,enum=finance,default=general"`
	TimeRange      string   `json:"time_range,omitempty" jsonschema:"enum=day,enum=week,enum=month,enum=year"`
	IncludeAnswer  bool     `json:"include_answer,omitempty" jsonschema_description:"Include a short generated answer"`
	IncludeDomains []string `json:"include_domains,omitempty" jsonschema_description:"Domains to specifically include"`
	ExcludeDomains []string `json:"exclude_domains,omitempty" jsonschema_description:"Domains to specifically exclude"`
}

// SearchResult represents a single search result
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse represents the Tavily search response
type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

type ExtractRequest struct {
	URLs []string `json:"urls" jsonschema:"minItems=1,maxItems=20" jsonschema_description:"List of URLs to extract content from"`
}

type ExtractResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

type ExtractResponse struct {
	Results       []ExtractResult `json:"results"`
	FailedResults []struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	} `json:"failed_results,omitempty"`
}

// Search performs a Tavily search
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req == nil || req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	// Set defaults
	if req.SearchDepth == "" {
		req.SearchDepth = "basic"
	}
	if req.MaxResults == 0 {
		req.MaxResults = 5
	}
	if req.Topic == "" {
		req.Topic = "general"
	}

	log.Debugf(ctx, "[Tavily] Sending search request: query=%s, depth=%s, max_results=%d", req.Query, req.SearchDepth, req.MaxResults)

	var searchResp SearchResponse
	if err := c.post(ctx, "/search", req, &searchResp); err != nil {
		return nil, err
	}

	log.Debugf(ctx, "[Tavily] Search completed successfully: %d results found", len(searchResp.Results))
	return &searchResp, nil
}

// Extract fetches the cleaned content of web pages
func (c *Client) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if req == nil || len(req.URLs) == 0 {
		return nil, fmt.Errorf("at least one URL is required")
	}

	var extractResp ExtractResponse
	if err := c.post(ctx, "/extract", req, &extractResp); err != nil {
		return nil, err
	}
	return &extractResp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
