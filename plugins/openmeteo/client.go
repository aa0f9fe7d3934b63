package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/va6996/aifns/log"
	"github.com/va6996/aifns/tools"
)

// Client handles Open-Meteo forecast API requests
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Open-Meteo API client
func NewClient() *Client {
	return &Client{
		BaseURL:    "https://api.open-meteo.com/v1",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Tools returns the weather capability
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("weather", "Get the current weather in a given location", c.Weather),
	}
}

type WeatherInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"minimum=-90,maximum=90" jsonschema_description:"Latitude"`
	Longitude float64 `json:"longitude" jsonschema:"minimum=-180,maximum=180" jsonschema_description:"Longitude"`
}

// CurrentWeather is the current_weather block of a forecast
type CurrentWeather struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	WeatherCode   int     `json:"weathercode"`
	IsDay         int     `json:"is_day"`
}

// Forecast represents the subset of the forecast response we return
type Forecast struct {
	Latitude           float64           `json:"latitude"`
	Longitude          float64           `json:"longitude"`
	Timezone           string            `json:"timezone"`
	Elevation          float64           `json:"elevation"`
	CurrentWeatherUnit map[string]string `json:"current_weather_units,omitempty"`
	CurrentWeather     CurrentWeather    `json:"current_weather"`
}

// Weather fetches the current weather at the given coordinates
func (c *Client) Weather(ctx context.Context, input WeatherInput) (any, error) {
	log.Debugf(ctx, "Fetching weather for %.4f,%.4f", input.Latitude, input.Longitude)
	return c.GetCurrentWeather(ctx, input.Latitude, input.Longitude)
}

// GetCurrentWeather returns the current weather for a coordinate pair
func (c *Client) GetCurrentWeather(ctx context.Context, latitude, longitude float64) (*Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var forecast Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &forecast, nil
}
