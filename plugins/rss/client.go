package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/va6996/aifns/tools"
)

// Client reads RSS, Atom and JSON feeds
type Client struct {
	Parser *gofeed.Parser
}

// NewClient creates a new feed client
func NewClient() *Client {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	parser.UserAgent = "aifns/1.0"
	return &Client{Parser: parser}
}

// Tools returns the rss capability
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("rss", "Get the latest news from an rss feed", c.Feed),
	}
}

type FeedInput struct {
	URL   string `json:"url" jsonschema_description:"URL of an RSS, Atom or JSON feed"`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100,default=20"`
}

// Entry is one feed item
type Entry struct {
	Title       string     `json:"title"`
	Link        string     `json:"link,omitempty"`
	Description string     `json:"description,omitempty"`
	Author      string     `json:"author,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
}

// Feed is the parsed feed with its newest entries
type Feed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Link        string  `json:"link,omitempty"`
	Items       []Entry `json:"items"`
}

// Feed fetches and parses the feed at input.URL
func (c *Client) Feed(ctx context.Context, input FeedInput) (any, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	parsed, err := c.Parser.ParseURLWithContext(input.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	feed := &Feed{
		Title:       parsed.Title,
		Description: parsed.Description,
		Link:        parsed.Link,
		Items:       make([]Entry, 0, min(limit, len(parsed.Items))),
	}
	for _, item := range parsed.Items {
		if len(feed.Items) == limit {
			break
		}
		entry := Entry{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Published:   item.PublishedParsed,
		}
		if item.Author != nil {
			entry.Author = item.Author.Name
		}
		feed.Items = append(feed.Items, entry)
	}
	return feed, nil
}
