// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mgalea/placedex/spatial"
)

var maltaBounds = spatial.Bounds{North: 35.95, South: 35.8, East: 14.58, West: 14.18}

func newTestOverpassProvider(overpassURL, nominatimURL string) *OverpassProvider {
	return &OverpassProvider{
		overpassURL:  overpassURL,
		nominatimURL: nominatimURL,
		region:       "Malta",
		countryCode:  "mt",
		bounds:       maltaBounds,
		maxResults:   500,
		httpClient:   newHTTPClient(5 * time.Second),
	}
}

const overpassFixture = `{
  "elements": [
    {
      "type": "node",
      "id": 1001,
      "lat": 35.8978,
      "lon": 14.5125,
      "tags": {
        "name": "Greens Supermarket",
        "shop": "supermarket",
        "addr:street": "Republic Street",
        "addr:city": "Valletta",
        "phone": "+356 2122 4567",
        "opening_hours": "Mo-Sa 07:00-22:00"
      }
    },
    {
      "type": "way",
      "id": 2002,
      "center": {"lat": 35.8756, "lon": 14.4892},
      "tags": {
        "name": "Pama Shopping Village",
        "shop": "supermarket",
        "opening_hours": "24/7"
      }
    },
    {
      "type": "node",
      "id": 3003,
      "lat": 36.0444,
      "lon": 14.2406,
      "tags": {"name": "Welbees Supermarket", "shop": "supermarket"}
    },
    {
      "type": "node",
      "id": 4004,
      "lat": 35.89,
      "lon": 14.5,
      "tags": {"shop": "convenience"}
    }
  ]
}`

func TestOverpassSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		w.Write([]byte(overpassFixture))
	}))
	defer srv.Close()

	p := newTestOverpassProvider(srv.URL, "")

	records, err := p.Search(context.Background(), "grocery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Gozo node is out of bounds, nameless node is skipped.
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	greens := records[0]
	if greens.ExternalID != "osm_node_1001" {
		t.Errorf("unexpected external id: %s", greens.ExternalID)
	}

	if greens.FormattedAddress != "Republic Street, Valletta, Malta" {
		t.Errorf("unexpected address: %s", greens.FormattedAddress)
	}

	if greens.Phone != "+356 2122 4567" {
		t.Errorf("unexpected phone: %s", greens.Phone)
	}

	if greens.Rating == nil || greens.UserRatingsTotal == nil || greens.PriceLevel == nil {
		t.Fatal("grocery record should carry synthesized rating fields")
	}

	pama := records[1]
	if pama.Point.Lat != 35.8756 || pama.Point.Lng != 14.4892 {
		t.Errorf("way should use its center: %+v", pama.Point)
	}

	if pama.OpeningHours == nil || !pama.OpeningHours.Is247 {
		t.Error("24/7 opening hours not detected")
	}
}

func TestOverpassSearchDegradesOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	p := newTestOverpassProvider(srv.URL, "")

	records, err := p.Search(context.Background(), "grocery")
	if err != nil {
		t.Fatalf("upstream failure must not surface as error, got: %v", err)
	}

	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestOverpassSearchUnknownCategory(t *testing.T) {
	p := newTestOverpassProvider("http://invalid.invalid", "")

	if _, err := p.Search(context.Background(), "nightclubs"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestOverpassBuildQuery(t *testing.T) {
	p := newTestOverpassProvider("", "")

	cat, err := LookupCategory("grocery")
	if err != nil {
		t.Fatal(err)
	}

	query := p.buildQuery(cat)

	for _, want := range []string{"[out:json]", "node", "way", "relation", "out center;", "35.8", "14.18"} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}
}

func TestSplitOSMID(t *testing.T) {
	cases := []struct {
		in      string
		osmType string
		osmID   int64
		ok      bool
	}{
		{"osm_node_1001", "node", 1001, true},
		{"osm_way_42", "way", 42, true},
		{"osm_relation_7", "relation", 7, true},
		{"osm_node_", "", 0, false},
		{"osm_area_9", "", 0, false},
		{"nominatim_55", "", 0, false},
		{"ChIJabc", "", 0, false},
	}

	for _, c := range cases {
		osmType, osmID, ok := splitOSMID(c.in)
		if ok != c.ok || osmType != c.osmType || osmID != c.osmID {
			t.Errorf("splitOSMID(%q) = (%q, %d, %v), want (%q, %d, %v)",
				c.in, osmType, osmID, ok, c.osmType, c.osmID, c.ok)
		}
	}
}

func TestBuildAddressFallback(t *testing.T) {
	p := newTestOverpassProvider("", "")

	got := p.buildAddress(map[string]string{}, 35.8989, 14.5146)
	want := "Malta (35.8989, 14.5146)"

	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEnhanceGroceryDeterministic(t *testing.T) {
	a := &Record{Name: "Lidl Malta"}
	b := &Record{Name: "Lidl Malta"}

	enhanceGrocery(a)
	enhanceGrocery(b)

	if *a.Rating != *b.Rating || *a.UserRatingsTotal != *b.UserRatingsTotal || *a.PriceLevel != *b.PriceLevel {
		t.Error("enhancement must be deterministic for the same name")
	}

	if *a.Rating < 2.5 || *a.Rating > 5.0 {
		t.Errorf("rating out of range: %f", *a.Rating)
	}

	if *a.PriceLevel != 1 {
		t.Errorf("discounter should get price level 1, got %d", *a.PriceLevel)
	}
}
