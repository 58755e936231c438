package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Geocoder looks up a human-readable area name for coordinates using a
// Nominatim-compatible reverse endpoint. The provider requires an
// identifying User-Agent on every request.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewGeocoder creates a geocoder against the given base URL.
func NewGeocoder(baseURL, userAgent string) *Geocoder {
	return &Geocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type reverseResponse struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
		Country      string `json:"country"`
		Postcode     string `json:"postcode"`
	} `json:"address"`
}

// areaName walks the place-name fields from most to least specific.
func (r *reverseResponse) areaName() string {
	a := r.Address
	for _, name := range []string{
		a.City, a.Town, a.Village, a.Municipality,
		a.County, a.State, a.Country, a.Postcode,
	} {
		if name != "" {
			return name
		}
	}
	return "Unknown location"
}

// ReverseGeocode resolves coordinates to an area name.
func (g *Geocoder) ReverseGeocode(ctx context.Context, coords Coordinates) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", coords.Latitude))
	q.Set("lon", fmt.Sprintf("%f", coords.Longitude))
	q.Set("format", "json")
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}
	return body.areaName(), nil
}
