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
	"strings"
	"time"

	"github.com/mgalea/placedex/spatial"
)

const nominatimLimit = 20

// TextSearch resolves a free-form query through Nominatim, scoped to the
// configured country. Results that are clearly not grocery-related are
// filtered out. Upstream failures degrade to an empty result.
func (p *OverpassProvider) TextSearch(ctx context.Context, query string) ([]*Record, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("countrycodes", p.countryCode)
	params.Set("limit", fmt.Sprint(nominatimLimit))
	params.Set("extratags", "1")
	params.Set("addressdetails", "1")

	endpoint := strings.TrimRight(p.nominatimURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building nominatim request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Printf("nominatim: search %q failed: %v", query, err)

		return nil, nil
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("nominatim: search %q failed: %v", query, ClassifyHTTPError(resp.StatusCode))

		return nil, nil
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.Printf("nominatim: decoding search %q response: %v", query, err)

		return nil, nil
	}

	now := time.Now().UTC()
	records := make([]*Record, 0, len(results))

	for i := range results {
		record, ok := p.parseNominatimResult(&results[i], now)
		if !ok {
			continue
		}

		records = append(records, record)
	}

	return records, nil
}

type nominatimResult struct {
	PlaceID     int64             `json:"place_id"`
	OSMType     string            `json:"osm_type"`
	OSMID       int64             `json:"osm_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Name        string            `json:"name"`
	Class       string            `json:"class"`
	Type        string            `json:"type"`
	ExtraTags   map[string]string `json:"extratags"`
}

func (p *OverpassProvider) parseNominatimResult(res *nominatimResult, now time.Time) (*Record, bool) {
	if !groceryRelated(res) {
		return nil, false
	}

	var lat, lng float64
	if _, err := fmt.Sscanf(res.Lat, "%f", &lat); err != nil {
		return nil, false
	}

	if _, err := fmt.Sscanf(res.Lon, "%f", &lng); err != nil {
		return nil, false
	}

	if !p.bounds.Contains(lat, lng) {
		return nil, false
	}

	name := res.Name
	if name == "" {
		// display_name starts with the feature name.
		name, _, _ = strings.Cut(res.DisplayName, ",")
		name = strings.TrimSpace(name)
	}

	if name == "" {
		return nil, false
	}

	record := &Record{
		ExternalID:       fmt.Sprintf("nominatim_%d", res.PlaceID),
		Name:             name,
		Point:            spatial.Point{Lat: lat, Lng: lng},
		FormattedAddress: res.DisplayName,
		Category:         CategoryGrocery,
		BusinessStatus:   "OPERATIONAL",
		Types:            []string{"grocery_or_supermarket"},
		OSMID:            res.OSMID,
		OSMType:          res.OSMType,
		LastVerified:     now,
	}

	if res.Type != "" {
		record.Types = append(record.Types, res.Type)
	}

	if hours := res.ExtraTags["opening_hours"]; hours != "" {
		record.OpeningHours = parseOpeningHours(hours)
	}

	enhanceGrocery(record)

	return record, true
}

// groceryRelated filters Nominatim hits down to plausible grocery venues.
// Free-text search over all of OSM returns streets, towns and monuments too.
func groceryRelated(res *nominatimResult) bool {
	if res.Class == "shop" {
		switch res.Type {
		case "supermarket", "grocery", "convenience", "greengrocer", "deli", "bakery":
			return true
		}
	}

	if res.Class == "amenity" && res.Type == "marketplace" {
		return true
	}

	haystack := strings.ToLower(res.DisplayName + " " + res.Name)

	for _, kw := range []string{"supermarket", "grocery", "minimarket", "mini market", "food store"} {
		if strings.Contains(haystack, kw) {
			return true
		}
	}

	return false
}
