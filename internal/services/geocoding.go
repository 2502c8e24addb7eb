package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var ErrNoGeocodingResult = errors.New("no geocoding result")

// GeocodingService resolves free-text place names to coordinates through a
// Nominatim-compatible endpoint. Callers treat failures as "no coordinates",
// not as request failures.
type GeocodingService struct {
	baseURL string
	client  *http.Client
}

func NewGeocodingService(baseURL string) *GeocodingService {
	return &GeocodingService{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type GeocodingResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search returns the raw candidate list for a query.
func (g *GeocodingService) Search(ctx context.Context, query string) ([]GeocodingResult, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&limit=5&q=%s", g.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "safetrade-backend")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned status: %d", resp.StatusCode)
	}

	var results []GeocodingResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}

	return results, nil
}

// Lookup returns the best-match coordinates for a query.
func (g *GeocodingService) Lookup(ctx context.Context, query string) (float64, float64, error) {
	results, err := g.Search(ctx, query)
	if err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, ErrNoGeocodingResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse longitude: %w", err)
	}

	return lat, lon, nil
}
