package googlemaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("AIza-test-key", maps.WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("EmptyAPIKey", func(t *testing.T) {
		client, err := NewClient("")
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("ValidAPIKey", func(t *testing.T) {
		client, err := NewClient("AIza-test-key")
		require.NoError(t, err)
		assert.NotNil(t, client.MapsClient)
	})
}

func TestGeocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "Eiffel Tower", r.URL.Query().Get("address"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Champ de Mars, 75007 Paris, France",
				"place_id": "ChIJLU7jZClu5kcR4PcOOO6p3I0",
				"types": ["tourist_attraction"],
				"geometry": {"location": {"lat": 48.8584, "lng": 2.2945}}
			}]
		}`))
	})

	res, err := client.Geocode(context.Background(), GeocodeInput{Address: "Eiffel Tower"})
	require.NoError(t, err)

	candidates := res.([]Candidate)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Champ de Mars, 75007 Paris, France", candidates[0].FormattedAddress)
	assert.InDelta(t, 48.8584, candidates[0].Location.Lat, 1e-6)
	assert.InDelta(t, 2.2945, candidates[0].Location.Lng, 1e-6)
}

func TestGeocode_ZeroResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	res, err := client.Geocode(context.Background(), GeocodeInput{Address: "nowhere at all"})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestGeocode_DeniedIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "bad key", "results": []}`))
	})

	geocode := client.Tools()[0]
	res := geocode.Invoke(context.Background(), map[string]any{"address": "Paris"})
	assert.Contains(t, res, "geocode failed:")
}

func TestPlaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/autocomplete/json", r.URL.Path)
		assert.Equal(t, "Louv", r.URL.Query().Get("input"))
		assert.Equal(t, "1000", r.URL.Query().Get("radius"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"predictions": [{
				"description": "Louvre Museum, Paris, France",
				"place_id": "ChIJD3uTd9hx5kcR1IQvGfr8dbk",
				"types": ["museum"],
				"structured_formatting": {"main_text": "Louvre Museum", "secondary_text": "Paris, France"}
			}]
		}`))
	})

	lat, lng := 48.86, 2.33
	res, err := client.Places(context.Background(), PlacesInput{Input: "Louv", Latitude: &lat, Longitude: &lng, Radius: 1000})
	require.NoError(t, err)

	predictions := res.([]Prediction)
	require.Len(t, predictions, 1)
	assert.Equal(t, "Louvre Museum", predictions[0].MainText)
	assert.Equal(t, "Paris, France", predictions[0].SecondaryText)
}

func TestTools_Schema(t *testing.T) {
	client, err := NewClient("AIza-test-key")
	require.NoError(t, err)

	descs := client.Tools()
	require.Len(t, descs, 2)
	assert.Equal(t, "geocode", descs[0].Name())
	assert.Equal(t, []any{"address"}, descs[0].Schema().Parameters["required"])
	assert.Equal(t, "places", descs[1].Name())
}
