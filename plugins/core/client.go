// Package core provides the capabilities that need no credentials:
// clock, calculator, currency and plain HTTP requests.
package core

import (
	"net/http"
	"time"

	"github.com/va6996/aifns/tools"
)

// Client holds the dependencies shared by the core tools
type Client struct {
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewClient initializes the core plugin
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Now:        time.Now,
	}
}

// Tools returns the core capabilities in a fixed order
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("calculator", "Calculate the output of a given mathematical expression", c.Calculate),
		tools.MustDefine("clock", "Get the current time given a timezone", c.Clock),
		tools.MustDefine("currency", "Returns the ISO 4217 currency code used in a country (ISO 3166-1 alpha-2 code)", c.Currency),
		tools.MustDefine("request", requestDescription, c.Request),
	}
}
