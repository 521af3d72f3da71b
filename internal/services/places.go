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

	"github.com/healbites/healbites/internal/models"
)

const (
	placesNearbyAPIURL   = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	placesDefaultTimeout = 10 * time.Second
	defaultSearchRadius  = 5000 // 5km in meters

	// MaxNearbyStores caps how many supermarkets a lookup returns
	MaxNearbyStores = 5
)

var (
	ErrPlacesAPIError      = errors.New("places api error")
	ErrPlacesInvalidAPIKey = errors.New("invalid or missing api key")
	ErrPlacesRequestDenied = errors.New("request denied by places api")
	ErrPlacesOverLimit     = errors.New("over query limit")
	errPlacesNoResults     = errors.New("no results found")
)

// PlacesService finds supermarkets near a position via the Places API
type PlacesService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type placesNearbyResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types []string `json:"types"`
	} `json:"results"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewPlacesService creates a new PlacesService instance
func NewPlacesService(apiKey string) *PlacesService {
	return &PlacesService{
		apiKey:  apiKey,
		baseURL: placesNearbyAPIURL,
		httpClient: &http.Client{
			Timeout: placesDefaultTimeout,
		},
	}
}

// FindNearbySupermarkets returns up to MaxNearbyStores grocery stores close
// to the given coordinates. An empty result set is valid, not an error.
func (s *PlacesService) FindNearbySupermarkets(ctx context.Context, lat, lng float64) ([]models.NearbyStore, error) {
	if s.apiKey == "" {
		return nil, ErrPlacesInvalidAPIKey
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(defaultSearchRadius))
	params.Set("type", "supermarket")
	params.Set("key", s.apiKey)

	reqURL := s.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var placesResp placesNearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&placesResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if err := checkPlacesStatus(placesResp.Status, placesResp.ErrorMessage); err != nil {
		// ZERO_RESULTS is not an error, just means no stores around
		if errors.Is(err, errPlacesNoResults) {
			return []models.NearbyStore{}, nil
		}
		return nil, err
	}

	stores := make([]models.NearbyStore, 0, MaxNearbyStores)
	for _, p := range placesResp.Results {
		if len(stores) == MaxNearbyStores {
			break
		}
		stores = append(stores, models.NearbyStore{
			Name:    p.Name,
			Address: p.Vicinity,
			URI:     "https://www.google.com/maps/place/?q=place_id:" + url.QueryEscape(p.PlaceID),
		})
	}

	return stores, nil
}

// checkPlacesStatus converts Places API status codes to errors
func checkPlacesStatus(status, errorMessage string) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		return errPlacesNoResults
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return ErrPlacesOverLimit
	case "REQUEST_DENIED":
		if errorMessage != "" {
			return fmt.Errorf("%w: %s", ErrPlacesRequestDenied, errorMessage)
		}
		return ErrPlacesRequestDenied
	default:
		if errorMessage != "" {
			return fmt.Errorf("%w: %s - %s", ErrPlacesAPIError, status, errorMessage)
		}
		return fmt.Errorf("%w: %s", ErrPlacesAPIError, status)
	}
}
