// Package nager exposes public holiday data from the Nager.Date API.
package nager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client handles Nager.Date API requests
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewClient creates a new Nager.Date API client
func NewClient() *Client {
	return &Client{
		BaseURL:    "https://date.nager.at/api/v3",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Now:        time.Now,
	}
}

// Holiday represents a public holiday from Nager.Date API
type Holiday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// LongWeekend represents a long weekend from Nager.Date API
type LongWeekend struct {
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	DayCount      int    `json:"dayCount"`
	NeedBridgeDay bool   `json:"needBridgeDay"`
}

// GetPublicHolidays returns public holidays for a specific country and year
func (c *Client) GetPublicHolidays(ctx context.Context, year int, countryCode string) ([]Holiday, error) {
	var holidays []Holiday
	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", c.BaseURL, year, strings.ToUpper(countryCode))
	if err := c.get(ctx, url, &holidays); err != nil {
		return nil, fmt.Errorf("failed to get public holidays: %w", err)
	}
	return holidays, nil
}

// GetLongWeekends returns long weekends for a specific country and year
func (c *Client) GetLongWeekends(ctx context.Context, year int, countryCode string) ([]LongWeekend, error) {
	var weekends []LongWeekend
	url := fmt.Sprintf("%s/LongWeekend/%d/%s", c.BaseURL, year, strings.ToUpper(countryCode))
	if err := c.get(ctx, url, &weekends); err != nil {
		return nil, fmt.Errorf("failed to get long weekends: %w", err)
	}
	return weekends, nil
}

// TodaysHoliday returns today's public holiday in the country, or nil
func (c *Client) TodaysHoliday(ctx context.Context, countryCode string) (*Holiday, error) {
	today := c.Now()

	holidays, err := c.GetPublicHolidays(ctx, today.Year(), countryCode)
	if err != nil {
		return nil, err
	}

	todayStr := today.Format("2006-01-02")
	for _, holiday := range holidays {
		if holiday.Date == todayStr {
			return &holiday, nil
		}
	}
	return nil, nil
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

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("unknown country code")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
