package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/va6996/aifns/log"
	"github.com/va6996/aifns/tools"
	"golang.org/x/sync/errgroup"
)

// Items are fetched with at most this many requests in flight
const maxConcurrentFetches = 5

// Client handles Hacker News Firebase API requests
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Hacker News API client
func NewClient() *Client {
	return &Client{
		BaseURL:    "https://hacker-news.firebaseio.com/v0",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Tools returns the hackernews capability
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("hackernews", "Get the latest news from hackernews", c.Stories),
	}
}

type StoriesInput struct {
	Type  string `json:"type" jsonschema:"enum=top,enum=best,enum=new,enum=ask,enum=show,enum=job"`
	Query string `json:"query,omitempty" jsonschema_description:"Only return stories whose title contains this text"`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,default=10"`
}

// Item is a Hacker News story, job or ask post
type Item struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Text        string `json:"text,omitempty"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

// Stories returns up to Limit items of the requested list, in list order
func (c *Client) Stories(ctx context.Context, input StoriesInput) (any, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	ids, err := c.GetStoryIDs(ctx, input.Type)
	if err != nil {
		return nil, err
	}
	// with a query we look further down the list so filtering still yields results
	scan := limit
	if input.Query != "" {
		scan = limit * 5
	}
	if len(ids) > scan {
		ids = ids[:scan]
	}

	items, err := c.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(input.Query)
	stories := make([]Item, 0, limit)
	for _, item := range items {
		if item == nil {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Title), query) {
			continue
		}
		stories = append(stories, *item)
		if len(stories) == limit {
			break
		}
	}

	log.Debugf(ctx, "Fetched %d %s stories", len(stories), input.Type)
	return stories, nil
}

// GetStoryIDs returns the ids on one of the story lists (top, best, new, ...)
func (c *Client) GetStoryIDs(ctx context.Context, listType string) ([]int64, error) {
	var ids []int64
	if err := c.get(ctx, fmt.Sprintf("%s/%sstories.json", c.BaseURL, listType), &ids); err != nil {
		return nil, fmt.Errorf("failed to get %s stories: %w", listType, err)
	}
	return ids, nil
}

// GetItems fetches items concurrently. The result is index-aligned with ids;
// deleted items come back as nil.
func (c *Client) GetItems(ctx context.Context, ids []int64) ([]*Item, error) {
	items := make([]*Item, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			var item *Item
			if err := c.get(gctx, fmt.Sprintf("%s/item/%d.json", c.BaseURL, id), &item); err != nil {
				return fmt.Errorf("failed to get item %d: %w", id, err)
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
