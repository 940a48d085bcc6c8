// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"strings"
	"time"

	"github.com/mgalea/placedex/config"
	"github.com/mgalea/placedex/spatial"
)

// MockProvider serves a fixed set of plausible Maltese places from memory.
// Deterministic and offline: the default provider for tests and demos.
type MockProvider struct {
	bounds spatial.Bounds
}

// NewMockProvider creates the in-memory fixture provider.
func NewMockProvider(conf *config.Config) *MockProvider {
	return &MockProvider{bounds: conf.Bounds()}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func weekdays(weekday, saturday, sunday string) *OpeningHours {
	return &OpeningHours{
		OpenNow: boolPtr(true),
		WeekdayText: []string{
			"Monday: " + weekday,
			"Tuesday: " + weekday,
			"Wednesday: " + weekday,
			"Thursday: " + weekday,
			"Friday: " + weekday,
			"Saturday: " + saturday,
			"Sunday: " + sunday,
		},
	}
}

// mockRecords returns fresh copies of the fixtures so callers can mutate
// their results safely.
func mockRecords() []*Record {
	now := time.Now().UTC()

	records := []*Record{
		{
			ExternalID:       "mock_greens_supermarket_valletta",
			Name:             "Greens Supermarket",
			Point:            spatial.Point{Lat: 35.8978, Lng: 14.5125},
			FormattedAddress: "Republic Street, Valletta, Malta",
			Phone:            "+356 2122 4567",
			Website:          "https://www.greens.com.mt",
			Rating:           floatPtr(4.2),
			UserRatingsTotal: intPtr(245),
			PriceLevel:       intPtr(2),
			Types:            []string{"grocery_or_supermarket", "supermarket", "food", "store"},
			OpeningHours:     weekdays("7:00 AM – 10:00 PM", "7:00 AM – 11:00 PM", "8:00 AM – 9:00 PM"),
		},
		{
			ExternalID:       "mock_pama_shopping_village",
			Name:             "Pama Shopping Village",
			Point:            spatial.Point{Lat: 35.8756, Lng: 14.4892},
			FormattedAddress: "Triq il-Qrendi, Mqabba, Malta",
			Phone:            "+356 2164 6200",
			Website:          "https://www.pama.com.mt",
			Rating:           floatPtr(4.5),
			UserRatingsTotal: intPtr(1250),
			PriceLevel:       intPtr(2),
			Types:            []string{"grocery_or_supermarket", "supermarket", "shopping_mall"},
			OpeningHours:     weekdays("8:00 AM – 10:00 PM", "8:00 AM – 10:00 PM", "8:00 AM – 9:00 PM"),
		},
		{
			ExternalID:       "mock_valyou_supermarket_sliema",
			Name:             "Valyou Supermarket",
			Point:            spatial.Point{Lat: 35.9122, Lng: 14.5019},
			FormattedAddress: "Tower Road, Sliema, Malta",
			Phone:            "+356 2133 5678",
			Rating:           floatPtr(3.8),
			UserRatingsTotal: intPtr(180),
			PriceLevel:       intPtr(1),
			Types:            []string{"grocery_or_supermarket", "supermarket", "food"},
			OpeningHours:     weekdays("6:30 AM – 9:00 PM", "6:30 AM – 9:00 PM", "7:00 AM – 8:00 PM"),
		},
		{
			// Victoria, Gozo: outside the configured Malta-island bounds, so
			// the provider drops it. Kept to exercise the bounds filter.
			ExternalID:       "mock_welbees_supermarket_gozo",
			Name:             "Welbees Supermarket",
			Point:            spatial.Point{Lat: 36.0444, Lng: 14.2406},
			FormattedAddress: "Triq ir-Repubblika, Victoria, Gozo, Malta",
			Phone:            "+356 2155 1234",
			Website:          "https://www.welbees.com",
			Rating:           floatPtr(4.1),
			UserRatingsTotal: intPtr(95),
			PriceLevel:       intPtr(2),
			Types:            []string{"grocery_or_supermarket", "supermarket", "food"},
			OpeningHours:     weekdays("7:00 AM – 9:00 PM", "7:00 AM – 9:00 PM", "8:00 AM – 7:00 PM"),
		},
		{
			ExternalID:       "mock_lidl_malta_birkirkara",
			Name:             "Lidl Malta",
			Point:            spatial.Point{Lat: 35.8972, Lng: 14.4611},
			FormattedAddress: "Triq Dun Karm, Birkirkara, Malta",
			Phone:            "+356 2144 8800",
			Website:          "https://www.lidl.com.mt",
			Rating:           floatPtr(4.3),
			UserRatingsTotal: intPtr(567),
			PriceLevel:       intPtr(1),
			Types:            []string{"grocery_or_supermarket", "supermarket", "food"},
			OpeningHours:     weekdays("7:00 AM – 10:00 PM", "7:00 AM – 10:00 PM", "8:00 AM – 9:00 PM"),
		},
		{
			ExternalID:       "mock_tower_supermarket_gzira",
			Name:             "Tower Supermarket",
			Point:            spatial.Point{Lat: 35.9063, Lng: 14.4947},
			FormattedAddress: "Triq it-Torri, Gzira, Malta",
			Phone:            "+356 2131 4567",
			Rating:           floatPtr(3.9),
			UserRatingsTotal: intPtr(134),
			PriceLevel:       intPtr(2),
			Types:            []string{"grocery_or_supermarket", "convenience_store", "food"},
			OpeningHours:     weekdays("6:00 AM – 10:00 PM", "6:00 AM – 10:00 PM", "7:00 AM – 9:00 PM"),
		},
		{
			ExternalID:       "mock_smart_supermarket_hamrun",
			Name:             "Smart Supermarket",
			Point:            spatial.Point{Lat: 35.8842, Lng: 14.4956},
			FormattedAddress: "Triq Vilhena, Hamrun, Malta",
			Phone:            "+356 2122 7890",
			Rating:           floatPtr(3.6),
			UserRatingsTotal: intPtr(89),
			PriceLevel:       intPtr(1),
			Types:            []string{"grocery_or_supermarket", "convenience_store"},
			OpeningHours:     weekdays("6:30 AM – 9:30 PM", "6:30 AM – 9:30 PM", "7:30 AM – 8:30 PM"),
		},
		{
			ExternalID:       "mock_park_towers_supermarket",
			Name:             "Park Towers Supermarket",
			Point:            spatial.Point{Lat: 35.9142, Lng: 14.4889},
			FormattedAddress: "Park Towers, Tigne Point, Sliema, Malta",
			Phone:            "+356 2138 9012",
			Rating:           floatPtr(4.0),
			UserRatingsTotal: intPtr(156),
			PriceLevel:       intPtr(3),
			Types:            []string{"grocery_or_supermarket", "supermarket"},
			OpeningHours:     weekdays("7:30 AM – 9:30 PM", "7:30 AM – 9:30 PM", "8:00 AM – 8:00 PM"),
		},
		{
			ExternalID:       "mock_convenience_store_closed",
			Name:             "Corner Shop Express",
			Point:            spatial.Point{Lat: 35.8945, Lng: 14.5089},
			FormattedAddress: "Triq San Gwann, Floriana, Malta",
			Rating:           floatPtr(2.8),
			UserRatingsTotal: intPtr(23),
			Types:            []string{"convenience_store", "store"},
			BusinessStatus:   "CLOSED_TEMPORARILY",
		},
		{
			ExternalID:       "mock_mega_mart_mosta",
			Name:             "Mega Mart",
			Point:            spatial.Point{Lat: 35.9089, Lng: 14.4278},
			FormattedAddress: "Triq il-Kbira, Mosta, Malta",
			Phone:            "+356 2143 5678",
			Website:          "https://www.megamart.com.mt",
			Rating:           floatPtr(4.4),
			UserRatingsTotal: intPtr(289),
			PriceLevel:       intPtr(2),
			Types:            []string{"grocery_or_supermarket", "supermarket", "food"},
			OpeningHours:     weekdays("7:00 AM – 10:30 PM", "7:00 AM – 10:30 PM", "8:00 AM – 9:30 PM"),
		},
	}

	for _, r := range records {
		r.Category = CategoryGrocery
		r.LastVerified = now

		if r.BusinessStatus == "" {
			r.BusinessStatus = "OPERATIONAL"
		}

		if r.OpeningHours != nil && r.BusinessStatus != "OPERATIONAL" {
			r.OpeningHours.OpenNow = boolPtr(false)
		}
	}

	return records
}

// Search returns the in-bounds fixtures. Only the grocery category has
// fixture data; the other categories yield empty results.
func (p *MockProvider) Search(_ context.Context, category string) ([]*Record, error) {
	if _, err := LookupCategory(category); err != nil {
		return nil, err
	}

	if category != CategoryGrocery {
		return nil, nil
	}

	var records []*Record

	for _, r := range mockRecords() {
		if !p.bounds.Contains(r.Point.Lat, r.Point.Lng) {
			continue
		}

		records = append(records, r)
	}

	return records, nil
}

// Details finds a fixture by external id.
func (p *MockProvider) Details(_ context.Context, externalID string) (*Record, error) {
	for _, r := range mockRecords() {
		if r.ExternalID == externalID {
			return r, nil
		}
	}

	return nil, ErrNotFound
}

// TextSearch matches the query against fixture names, addresses and types,
// case-insensitively.
func (p *MockProvider) TextSearch(_ context.Context, query string) ([]*Record, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var records []*Record

	for _, r := range mockRecords() {
		if !p.bounds.Contains(r.Point.Lat, r.Point.Lng) {
			continue
		}

		if matchesMockQuery(r, q) {
			records = append(records, r)
		}
	}

	return records, nil
}

func matchesMockQuery(r *Record, q string) bool {
	if strings.Contains(strings.ToLower(r.Name), q) {
		return true
	}

	if strings.Contains(strings.ToLower(r.FormattedAddress), q) {
		return true
	}

	for _, t := range r.Types {
		if strings.Contains(t, q) {
			return true
		}
	}

	return false
}
