package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
)

type ClockInput struct {
	TimeZone string `json:"timeZone" jsonschema_description:"IANA time zone, e.g. America/New_York"`
	Locale   string `json:"locale,omitempty" jsonschema_description:"BCP 47 locale used to format the time, e.g. en-US or de-DE. Defaults to en-US."`
}

// Regions whose locales default to a 12-hour clock
var twelveHourRegions = map[string]bool{
	"US": true, "CA": true, "AU": true, "NZ": true, "IN": true, "PH": true,
	"PK": true, "BD": true, "EG": true, "SA": true, "MY": true, "CO": true,
}

// Clock returns the current time of day in the given zone, formatted the
// way the locale's region usually writes it ("1:05:09 PM" or "13:05:09").
func (c *Client) Clock(ctx context.Context, input ClockInput) (any, error) {
	loc, err := time.LoadLocation(input.TimeZone)
	if err != nil || input.TimeZone == "" || input.TimeZone == "Local" {
		return nil, fmt.Errorf("invalid time zone specified: %s", input.TimeZone)
	}

	locale := input.Locale
	if locale == "" {
		locale = "en-US"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	now := c.Now().In(loc)
	if uses12Hour(tag) {
		return now.Format("3:04:05 PM"), nil
	}
	return now.Format("15:04:05"), nil
}

func uses12Hour(tag language.Tag) bool {
	region, _ := tag.Region()
	return twelveHourRegions[region.String()]
}
