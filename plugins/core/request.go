package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const requestDescription = "Useful for sending http request. Use this when you need to get specific content from a url. Input is a url, method, body, output is the result of the request."

// Responses larger than this are cut off
const maxResponseBytes = 1 << 20

type RequestInput struct {
	URL    string `json:"url" jsonschema_description:"Absolute http or https URL"`
	Method string `json:"method,omitempty" jsonschema_description:"HTTP method, defaults to GET"`
	Body   any    `json:"body,omitempty" jsonschema_description:"Optional request body, sent as JSON"`
}

// Request performs an HTTP request. JSON responses are decoded, anything
// else is returned as text. A non-2xx status is an error.
func (c *Client) Request(ctx context.Context, input RequestInput) (any, error) {
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return nil, fmt.Errorf("url must start with http:// or https://")
	}
	method := strings.ToUpper(input.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if input.Body != nil {
		payload, err := json.Marshal(input.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, input.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err == nil {
		return decoded, nil
	}
	return string(data), nil
}
