package core

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type CurrencyInput struct {
	CountryCode string `json:"country_code" jsonschema_description:"ISO 3166-1 alpha-2 country code, e.g. JP"`
}

type CurrencyOutput struct {
	CountryCode string `json:"country_code"`
	Currency    string `json:"currency"`
}

// Currency looks up the currency in use for a region
func (c *Client) Currency(ctx context.Context, input CurrencyInput) (any, error) {
	code := strings.ToUpper(strings.TrimSpace(input.CountryCode))
	region, err := language.ParseRegion(code)
	if err != nil {
		return nil, fmt.Errorf("unknown country code %q", input.CountryCode)
	}

	cur, ok := currency.FromRegion(region)
	if !ok {
		return nil, fmt.Errorf("no currency found for %s", code)
	}
	return CurrencyOutput{CountryCode: region.String(), Currency: cur.String()}, nil
}
