package nager

import (
	"context"

	"github.com/va6996/aifns/log"
	"github.com/va6996/aifns/tools"
)

// Tools returns the holiday capabilities
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("public_holidays", "Returns public holidays for a specific country and year.", c.PublicHolidays),
		tools.MustDefine("long_weekends", "Returns long weekends for a specific country and year.", c.LongWeekends),
		tools.MustDefine("is_today_holiday", "Checks whether today is a public holiday in a country.", c.IsTodayHoliday),
	}
}

type YearInput struct {
	CountryCode string `json:"country_code" jsonschema:"pattern=^[A-Za-z]{2}$" jsonschema_description:"ISO country code (e.g., 'US', 'GB')"`
	Year        int    `json:"year,omitempty" jsonschema:"minimum=1975,maximum=2075" jsonschema_description:"Year (e.g., 2024). Defaults to the current year."`
}

type CountryInput struct {
	CountryCode string `json:"country_code" jsonschema:"pattern=^[A-Za-z]{2}$" jsonschema_description:"ISO country code (e.g., 'US', 'GB')"`
}

type PublicHolidaysOutput struct {
	Holidays []Holiday `json:"holidays"`
	Count    int       `json:"count"`
}

type LongWeekendsOutput struct {
	LongWeekends []LongWeekend `json:"long_weekends"`
	Count        int           `json:"count"`
}

type IsTodayHolidayOutput struct {
	IsHoliday bool     `json:"is_holiday"`
	Holiday   *Holiday `json:"holiday,omitempty"`
}

func (c *Client) year(input YearInput) int {
	if input.Year == 0 {
		return c.Now().Year()
	}
	return input.Year
}

func (c *Client) PublicHolidays(ctx context.Context, input YearInput) (any, error) {
	holidays, err := c.GetPublicHolidays(ctx, c.year(input), input.CountryCode)
	if err != nil {
		return nil, err
	}
	log.Debugf(ctx, "Found %d holidays for %s", len(holidays), input.CountryCode)
	return &PublicHolidaysOutput{Holidays: holidays, Count: len(holidays)}, nil
}

func (c *Client) LongWeekends(ctx context.Context, input YearInput) (any, error) {
	weekends, err := c.GetLongWeekends(ctx, c.year(input), input.CountryCode)
	if err != nil {
		return nil, err
	}
	return &LongWeekendsOutput{LongWeekends: weekends, Count: len(weekends)}, nil
}

func (c *Client) IsTodayHoliday(ctx context.Context, input CountryInput) (any, error) {
	holiday, err := c.TodaysHoliday(ctx, input.CountryCode)
	if err != nil {
		return nil, err
	}
	return &IsTodayHolidayOutput{IsHoliday: holiday != nil, Holiday: holiday}, nil
}
