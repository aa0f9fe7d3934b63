package googlemaps

import (
	"context"
	"fmt"

	"github.com/va6996/aifns/tools"
	"googlemaps.github.io/maps"
)

// Client handles Google Maps API requests
type Client struct {
	APIKey     string
	MapsClient *maps.Client
}

// NewClient creates a new Google Maps API client
// Returns an error if the client cannot be initialized
func NewClient(apiKey string, opts ...maps.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google maps API key is required")
	}

	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &Client{
		APIKey:     apiKey,
		MapsClient: c,
	}, nil
}

// Tools returns the maps capabilities
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("geocode", "Find the coordinates of an address or place name", c.Geocode),
		tools.MustDefine("places", "Autocomplete a partial place name into matching places, optionally near a location", c.Places),
	}
}

type GeocodeInput struct {
	Address string `json:"address" jsonschema_description:"Address or place name to look up"`
}

// Location represents latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Candidate is a single geocoding match
type Candidate struct {
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
	Location         Location `json:"location"`
	Types            []string `json:"types,omitempty"`
}

// Geocode resolves an address into candidate coordinates
func (c *Client) Geocode(ctx context.Context, input GeocodeInput) (any, error) {
	if c.MapsClient == nil {
		return nil, fmt.Errorf("maps client not initialized")
	}

	results, err := c.MapsClient.Geocode(ctx, &maps.GeocodingRequest{Address: input.Address})
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}

	candidates := make([]Candidate, len(results))
	for i, r := range results {
		candidates[i] = Candidate{
			FormattedAddress: r.FormattedAddress,
			PlaceID:          r.PlaceID,
			Types:            r.Types,
			Location: Location{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		}
	}
	return candidates, nil
}

type PlacesInput struct {
	Input     string   `json:"input" jsonschema_description:"Partial place name"`
	Latitude  *float64 `json:"latitude,omitempty" jsonschema:"minimum=-90,maximum=90"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema:"minimum=-180,maximum=180"`
	Radius    int      `json:"radius,omitempty" jsonschema:"minimum=0" jsonschema_description:"Search radius in meters around the location"`
}

// Prediction represents a single autocomplete prediction
type Prediction struct {
	Description   string   `json:"description"`
	PlaceID       string   `json:"place_id"`
	MainText      string   `json:"main_text"`
	SecondaryText string   `json:"secondary_text,omitempty"`
	Types         []string `json:"types,omitempty"`
}

// Places searches for places using autocomplete
func (c *Client) Places(ctx context.Context, input PlacesInput) (any, error) {
	if c.MapsClient == nil {
		return nil, fmt.Errorf("maps client not initialized")
	}

	req := &maps.PlaceAutocompleteRequest{
		Input: input.Input,
	}

	if input.Latitude != nil && input.Longitude != nil {
		req.Location = &maps.LatLng{
			Lat: *input.Latitude,
			Lng: *input.Longitude,
		}
		if input.Radius > 0 {
			req.Radius = uint(input.Radius)
		}
	}

	resp, err := c.MapsClient.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}

	predictions := make([]Prediction, len(resp.Predictions))
	for i, pred := range resp.Predictions {
		predictions[i] = Prediction{
			Description:   pred.Description,
			PlaceID:       pred.PlaceID,
			Types:         pred.Types,
			MainText:      pred.StructuredFormatting.MainText,
			SecondaryText: pred.StructuredFormatting.SecondaryText,
		}
	}
	return predictions, nil
}
