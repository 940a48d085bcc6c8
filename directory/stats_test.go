// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"testing"

	"github.com/mgalea/placedex/spatial"
)

func TestStoreStatsEmptyTable(t *testing.T) {
	db, repo, _ := setupTestDB(t)
	defer db.Close()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() on empty table error = %v", err)
	}

	if stats.TotalStores != 0 || stats.AverageRating != 0 || stats.RatingCoverage != 0 {
		t.Errorf("empty table must aggregate to zeros: %+v", stats)
	}
}

func TestStoreStats(t *testing.T) {
	db, repo, _ := setupTestDB(t)
	defer db.Close()

	rated := testStore("s1", "Rated", 35.89, 14.5)

	unrated := testStore("s2", "Unrated", 35.9, 14.51)
	unrated.Rating = nil

	closed := testStore("s3", "Gone", 35.88, 14.49)
	closed.PermanentlyClosed = true

	for _, store := range []*Store{rated, unrated, closed} {
		if err := repo.Create(store); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	// The permanently closed store is excluded from the overview.
	if stats.TotalStores != 2 {
		t.Errorf("expected 2 active stores, got %d", stats.TotalStores)
	}

	if stats.RatedStores != 1 {
		t.Errorf("expected 1 rated store, got %d", stats.RatedStores)
	}

	if stats.AverageRating != 4.2 {
		t.Errorf("expected average 4.2, got %f", stats.AverageRating)
	}

	if stats.RatingCoverage != 50.0 {
		t.Errorf("expected 50%% coverage, got %f", stats.RatingCoverage)
	}
}

func TestBusinessStats(t *testing.T) {
	db, _, repo := setupTestDB(t)
	defer db.Close()

	withPhone := &Business{
		ExternalID: "b1", Name: "Pharmacy One", Category: "pharmacy",
		Point: spatial.Point{Lat: 35.8990, Lng: 14.5150}, Phone: "+356 2122 0001",
	}
	withWebsite := &Business{
		ExternalID: "b2", Name: "School One", Category: "education",
		Point: spatial.Point{Lat: 35.9142, Lng: 14.4889}, Website: "https://school.example.mt",
	}
	bare := &Business{
		ExternalID: "b3", Name: "Chapel", Category: "religion",
		Point: spatial.Point{Lat: 35.8756, Lng: 14.4892},
	}

	for _, business := range []*Business{withPhone, withWebsite, bare} {
		if err := repo.Create(business); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.TotalBusinesses != 3 {
		t.Errorf("expected 3 businesses, got %d", stats.TotalBusinesses)
	}

	if stats.WithPhone != 1 || stats.WithWebsite != 1 || stats.WithEmail != 0 {
		t.Errorf("unexpected contact counts: %+v", stats)
	}

	// Two of three rows have at least one contact channel.
	if stats.ContactCoverage != 66.7 {
		t.Errorf("expected 66.7%% contact coverage, got %f", stats.ContactCoverage)
	}

	if stats.ByCategory["pharmacy"] != 1 || stats.ByCategory["education"] != 1 || stats.ByCategory["religion"] != 1 {
		t.Errorf("unexpected category breakdown: %v", stats.ByCategory)
	}

	// Three well separated points land in three distinct cells.
	if stats.CoverageCells != 3 {
		t.Errorf("expected 3 distinct h3 cells, got %d", stats.CoverageCells)
	}
}

func TestBusinessStatsEmptyTable(t *testing.T) {
	db, _, repo := setupTestDB(t)
	defer db.Close()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() on empty table error = %v", err)
	}

	if stats.TotalBusinesses != 0 || stats.ContactCoverage != 0 || stats.CoverageCells != 0 {
		t.Errorf("empty table must aggregate to zeros: %+v", stats)
	}
}
