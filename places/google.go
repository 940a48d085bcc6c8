// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/mgalea/placedex/config"
	"github.com/mgalea/placedex/spatial"
)

const (
	googlePlacesBaseURL = "https://maps.googleapis.com/maps/api/place"
	googleTimeout       = 30 * time.Second

	// A freshly issued next_page_token is not valid immediately.
	googlePageTokenDelay = 2 * time.Second
)

// GoogleProvider fetches places from the Google Places API. Requires an API
// key; see resolveGoogleAPIKey for the lookup order.
type GoogleProvider struct {
	apiKey     string
	baseURL    string
	region     string
	center     spatial.Point
	bounds     spatial.Bounds
	radius     int
	maxResults int
	httpClient *http.Client
}

// NewGoogleProvider creates a Places-API-backed provider for the configured
// region.
func NewGoogleProvider(ctx context.Context, conf *config.Config) (*GoogleProvider, error) {
	apiKey, err := resolveGoogleAPIKey(ctx, conf.Google.APIKey)
	if err != nil {
		return nil, err
	}

	return &GoogleProvider{
		apiKey:     apiKey,
		baseURL:    googlePlacesBaseURL,
		region:     conf.Region.Name,
		center:     conf.Center(),
		bounds:     conf.Bounds(),
		radius:     conf.Search.RadiusMeters,
		maxResults: conf.Search.MaxResults,
		httpClient: newHTTPClient(googleTimeout),
	}, nil
}

type googlePlace struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	FormattedPhone   string   `json:"formatted_phone_number"`
	Website          string   `json:"website"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	BusinessStatus   string   `json:"business_status"`
	PermanentlyClose bool     `json:"permanently_closed"`
	Types            []string `json:"types"`
	OpeningHours     *struct {
		OpenNow     *bool    `json:"open_now"`
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

type googleResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
	Results       []googlePlace `json:"results"`
	Result        *googlePlace  `json:"result"`
	NextPageToken string        `json:"next_page_token"`
}

// Search runs a nearby search per Google place type of the category and
// merges the pages, deduplicated by place_id. Upstream failures degrade to
// whatever was collected before the failure.
func (p *GoogleProvider) Search(ctx context.Context, category string) ([]*Record, error) {
	cat, err := LookupCategory(category)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	seen := make(map[string]bool)

	var records []*Record

	for _, placeType := range cat.GoogleTypes {
		if len(records) >= p.maxResults {
			break
		}

		params := url.Values{}
		params.Set("location", fmt.Sprintf("%f,%f", p.center.Lat, p.center.Lng))
		params.Set("radius", fmt.Sprint(p.radius))
		params.Set("type", placeType)

		places, err := p.fetchAllPages(ctx, "/nearbysearch/json", params)
		if err != nil {
			if IsRateLimitError(err) {
				log.Printf("google: %s nearby search (%s) throttled: %v", category, placeType, err)

				break
			}

			log.Printf("google: %s nearby search (%s) failed: %v", category, placeType, err)

			continue
		}

		for i := range places {
			if seen[places[i].PlaceID] {
				continue
			}

			seen[places[i].PlaceID] = true

			record, ok := p.parsePlace(&places[i], category, now)
			if !ok {
				continue
			}

			records = append(records, record)
		}
	}

	if len(records) > p.maxResults {
		records = records[:p.maxResults]
	}

	return records, nil
}

// Details fetches a single place by its place_id.
func (p *GoogleProvider) Details(ctx context.Context, externalID string) (*Record, error) {
	params := url.Values{}
	params.Set("place_id", externalID)
	params.Set("fields", "place_id,name,geometry,formatted_address,formatted_phone_number,"+
		"website,rating,user_ratings_total,price_level,business_status,types,opening_hours")

	resp, err := p.fetch(ctx, "/details/json", params)
	if err != nil {
		return nil, fmt.Errorf("fetching details for %s: %w", externalID, err)
	}

	if resp.Status == "NOT_FOUND" || resp.Status == "INVALID_REQUEST" || resp.Result == nil {
		return nil, ErrNotFound
	}

	record, ok := p.parsePlace(resp.Result, categoryForTypes(resp.Result.Types), time.Now().UTC())
	if !ok {
		return nil, ErrNotFound
	}

	return record, nil
}

// TextSearch runs a free-form text search scoped to the region center and
// radius. Upstream failures degrade to an empty result.
func (p *GoogleProvider) TextSearch(ctx context.Context, query string) ([]*Record, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("location", fmt.Sprintf("%f,%f", p.center.Lat, p.center.Lng))
	params.Set("radius", fmt.Sprint(p.radius))

	places, err := p.fetchAllPages(ctx, "/textsearch/json", params)
	if err != nil {
		log.Printf("google: text search %q failed: %v", query, err)

		return nil, nil
	}

	now := time.Now().UTC()
	records := make([]*Record, 0, len(places))

	for i := range places {
		record, ok := p.parsePlace(&places[i], categoryForTypes(places[i].Types), now)
		if !ok {
			continue
		}

		records = append(records, record)
	}

	return records, nil
}

// fetchAllPages follows next_page_token until exhausted or maxResults is
// covered. Google serves at most three pages of twenty.
func (p *GoogleProvider) fetchAllPages(ctx context.Context, path string, params url.Values) ([]googlePlace, error) {
	var places []googlePlace

	for {
		resp, err := p.fetch(ctx, path, params)
		if err != nil {
			return places, err
		}

		if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
			return places, fmt.Errorf("google status %s: %s", resp.Status, resp.ErrorMessage)
		}

		places = append(places, resp.Results...)

		if resp.NextPageToken == "" || len(places) >= p.maxResults {
			return places, nil
		}

		select {
		case <-ctx.Done():
			return places, ctx.Err()
		case <-time.After(googlePageTokenDelay):
		}

		params = url.Values{}
		params.Set("pagetoken", resp.NextPageToken)
	}
}

func (p *GoogleProvider) fetch(ctx context.Context, path string, params url.Values) (*googleResponse, error) {
	params.Set("key", p.apiKey)
	endpoint := p.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building google request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding google response: %w", err)
	}

	return &parsed, nil
}

func (p *GoogleProvider) parsePlace(gp *googlePlace, category string, now time.Time) (*Record, bool) {
	if gp.Name == "" || gp.PlaceID == "" {
		return nil, false
	}

	lat, lng := gp.Geometry.Location.Lat, gp.Geometry.Location.Lng
	if lat == 0 && lng == 0 {
		return nil, false
	}

	if !p.bounds.Contains(lat, lng) {
		return nil, false
	}

	address := gp.FormattedAddress
	if address == "" {
		address = gp.Vicinity
	}

	if address == "" {
		address = fmt.Sprintf("%s (%.4f, %.4f)", p.region, lat, lng)
	}

	record := &Record{
		ExternalID:        gp.PlaceID,
		Name:              gp.Name,
		Point:             spatial.Point{Lat: lat, Lng: lng},
		FormattedAddress:  address,
		Category:          category,
		Phone:             gp.FormattedPhone,
		Website:           gp.Website,
		Rating:            gp.Rating,
		UserRatingsTotal:  gp.UserRatingsTotal,
		PriceLevel:        gp.PriceLevel,
		BusinessStatus:    gp.BusinessStatus,
		PermanentlyClosed: gp.PermanentlyClose || gp.BusinessStatus == "CLOSED_PERMANENTLY",
		Types:             gp.Types,
		LastVerified:      now,
	}

	if gp.OpeningHours != nil {
		record.OpeningHours = &OpeningHours{
			OpenNow:     gp.OpeningHours.OpenNow,
			WeekdayText: gp.OpeningHours.WeekdayText,
		}
	}

	return record, true
}

// categoryForTypes maps Google place types back to a category key.
func categoryForTypes(types []string) string {
	for _, t := range types {
		switch t {
		case "grocery_or_supermarket", "supermarket", "convenience_store":
			return CategoryGrocery
		case "school", "university", "primary_school", "secondary_school":
			return "education"
		case "church", "mosque", "synagogue", "hindu_temple", "place_of_worship":
			return "religion"
		case "hospital", "doctor", "dentist", "physiotherapist":
			return "medical"
		case "pharmacy", "drugstore":
			return "pharmacy"
		}
	}

	return CategoryGrocery
}
