package tavily

import (
	"context"

	"github.com/va6996/aifns/tools"
)

const searchDescription = "Searches the web for current information. Useful for finding recent news, facts, or real-time data."

const extractDescription = "Extracts clean content from web pages. Removes ads, navigation, and other clutter. Useful when you have specific URLs you want to get content from."

// Tools returns the web search capabilities
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("web_search", searchDescription, func(ctx context.Context, input SearchRequest) (any, error) {
			return c.Search(ctx, &input)
		}),
		tools.MustDefine("web_extract", extractDescription, func(ctx context.Context, input ExtractRequest) (any, error) {
			return c.Extract(ctx, &input)
		}),
	}
}
