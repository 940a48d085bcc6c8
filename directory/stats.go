// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import "math"

// StoreStats is the store overview aggregate.
type StoreStats struct {
	TotalStores    int     `json:"total_stores"`
	RatedStores    int     `json:"rated_stores"`
	AverageRating  float64 `json:"average_rating"`
	RatingCoverage float64 `json:"rating_coverage_pct"`
}

// BusinessStats is the business directory aggregate.
type BusinessStats struct {
	TotalBusinesses int            `json:"total_businesses"`
	WithPhone       int            `json:"with_phone"`
	WithWebsite     int            `json:"with_website"`
	WithEmail       int            `json:"with_email"`
	ContactCoverage float64        `json:"contact_coverage_pct"`
	ByCategory      map[string]int `json:"by_category"`
	CoverageCells   int            `json:"coverage_cells"`
}

// Stats aggregates the active (not permanently closed) stores.
func (r *sqlStoreRepository) Stats() (*StoreStats, error) {
	stats := &StoreStats{}

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(rating),
		       COALESCE(AVG(rating), 0)
		FROM stores
		WHERE NOT permanently_closed
	`).Scan(&stats.TotalStores, &stats.RatedStores, &stats.AverageRating)
	if err != nil {
		return nil, err
	}

	if stats.TotalStores > 0 {
		stats.RatingCoverage = roundPct(float64(stats.RatedStores) / float64(stats.TotalStores) * 100)
	}

	stats.AverageRating = math.Round(stats.AverageRating*100) / 100

	return stats, nil
}

// Stats aggregates the business directory: contact coverage plus the number
// of distinct H3 cells the rows fall into, a rough spread-over-the-region
// figure.
func (r *sqlBusinessRepository) Stats() (*BusinessStats, error) {
	stats := &BusinessStats{}

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(phone),
		       COUNT(website),
		       COUNT(email),
		       COUNT(DISTINCT h3_res8)
		FROM businesses
	`).Scan(&stats.TotalBusinesses, &stats.WithPhone, &stats.WithWebsite,
		&stats.WithEmail, &stats.CoverageCells)
	if err != nil {
		return nil, err
	}

	if stats.TotalBusinesses > 0 {
		withAny := 0

		err := r.db.QueryRow(`
			SELECT COUNT(*) FROM businesses
			WHERE phone IS NOT NULL OR website IS NOT NULL OR email IS NOT NULL
		`).Scan(&withAny)
		if err != nil {
			return nil, err
		}

		stats.ContactCoverage = roundPct(float64(withAny) / float64(stats.TotalBusinesses) * 100)
	}

	byCategory, err := r.CountByCategory()
	if err != nil {
		return nil, err
	}

	stats.ByCategory = byCategory

	return stats, nil
}

func roundPct(v float64) float64 {
	return math.Round(v*10) / 10
}
