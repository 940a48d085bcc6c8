// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"sort"

	"github.com/mgalea/placedex/spatial"
	"github.com/mgalea/placedex/utils/textutils"
)

// SearchParams are the search filters. Zero values mean "no filter"; setting
// Latitude, Longitude and RadiusMeters switches on the proximity mode on top
// of the attribute filters.
type SearchParams struct {
	Query         string
	MinRating     *float64
	MaxPriceLevel *int
	ExcludeClosed bool
	Latitude      *float64
	Longitude     *float64
	RadiusMeters  int
	Limit         int
	Offset        int
}

func (p *SearchParams) proximity() bool {
	return p.Latitude != nil && p.Longitude != nil && p.RadiusMeters > 0
}

func (p *SearchParams) center() spatial.Point {
	return spatial.Point{Lat: *p.Latitude, Lng: *p.Longitude}
}

// StorePage is one page of stores plus the pagination envelope.
type StorePage struct {
	Items   []*Store `json:"items"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	HasMore bool     `json:"has_more"`
}

// BusinessPage is one page of businesses plus the pagination envelope.
type BusinessPage struct {
	Items   []*Business `json:"items"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

// SearchStores filters the stores by attributes, optionally combined with a
// proximity mode. Query matching is a case- and diacritic-insensitive
// substring over name and address; the total is computed before pagination.
// In proximity mode the candidates come from a bounding-box SQL pre-filter
// and the paginated page is refined by exact Haversine distance; because the
// refinement happens after pagination, a page can come back with fewer rows
// than the limit even when more matches exist further on.
func SearchStores(repo StoreRepository, params SearchParams) (*StorePage, error) {
	var (
		stores []*Store
		err    error
	)

	if params.proximity() {
		bounds := spatial.BoundingBox(params.center(), float64(params.RadiusMeters))
		stores, _, err = repo.FindInBounds(bounds, 0, 0)
	} else {
		stores, err = repo.All()
	}

	if err != nil {
		return nil, err
	}

	var matched []*Store

	query := textutils.LowerASCIIFolding(params.Query)

	for _, store := range stores {
		if query != "" &&
			!textutils.ContainsFold(store.Name, query) &&
			!textutils.ContainsFold(store.Address, query) {
			continue
		}

		if !matchesAttributeFilters(store.Rating, store.PriceLevel,
			store.PermanentlyClosed, store.BusinessStatus, params) {
			continue
		}

		matched = append(matched, store)
	}

	items, page := paginate(matched, params.Limit, params.Offset)

	if params.proximity() {
		items = refineByDistance(items, params.center(), params.RadiusMeters)
	}

	return &StorePage{
		Items:   items,
		Total:   page.total,
		Limit:   page.limit,
		Offset:  page.offset,
		HasMore: page.hasMore,
	}, nil
}

// refineByDistance drops page rows beyond the exact Haversine radius,
// attaches the distance and sorts ascending.
func refineByDistance(stores []*Store, center spatial.Point, radiusMeters int) []*Store {
	radiusKm := float64(radiusMeters) / 1000.0

	items := make([]*Store, 0, len(stores))

	for _, store := range stores {
		distanceKm := center.HaversineDistance(&store.Point) / 1000.0
		if distanceKm > radiusKm {
			continue
		}

		d := distanceKm
		store.DistanceKm = &d
		items = append(items, store)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return *items[i].DistanceKm < *items[j].DistanceKm
	})

	return items
}

// SearchBusinesses filters one category (or all) of businesses by attributes,
// with an optional planar proximity filter. The proximity path scans in
// memory and sorts by ascending distance.
func SearchBusinesses(repo BusinessRepository, category string, params SearchParams, near *NearbyParams) (*BusinessPage, error) {
	businesses, err := repo.All(category)
	if err != nil {
		return nil, err
	}

	var matched []*Business

	query := textutils.LowerASCIIFolding(params.Query)

	for _, business := range businesses {
		if query != "" &&
			!textutils.ContainsFold(business.Name, query) &&
			!textutils.ContainsFold(business.Address, query) {
			continue
		}

		if !matchesAttributeFilters(business.Rating, business.PriceLevel,
			business.PermanentlyClosed, business.BusinessStatus, params) {
			continue
		}

		if near != nil {
			distance := spatial.PlanarDistanceKm(near.Center, business.Point)
			if distance > float64(near.RadiusMeters)/1000.0 {
				continue
			}

			d := distance
			business.DistanceKm = &d
		}

		matched = append(matched, business)
	}

	if near != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			return *matched[i].DistanceKm < *matched[j].DistanceKm
		})
	}

	items, page := paginate(matched, params.Limit, params.Offset)

	return &BusinessPage{
		Items:   items,
		Total:   page.total,
		Limit:   page.limit,
		Offset:  page.offset,
		HasMore: page.hasMore,
	}, nil
}

// NearbyParams describe a proximity search.
type NearbyParams struct {
	Center       spatial.Point
	RadiusMeters int
	Limit        int
	Offset       int
}

// NearbyStores is the proximity search with the defaults of the nearby
// endpoint: closed stores are always excluded.
func NearbyStores(repo StoreRepository, params NearbyParams) (*StorePage, error) {
	return SearchStores(repo, SearchParams{
		ExcludeClosed: true,
		Latitude:      &params.Center.Lat,
		Longitude:     &params.Center.Lng,
		RadiusMeters:  params.RadiusMeters,
		Limit:         params.Limit,
		Offset:        params.Offset,
	})
}

func matchesAttributeFilters(rating *float64, priceLevel *int, permanentlyClosed bool, status string, params SearchParams) bool {
	if params.MinRating != nil {
		if rating == nil || *rating < *params.MinRating {
			return false
		}
	}

	// A missing price level passes the cap: unknown is not "too expensive".
	if params.MaxPriceLevel != nil && priceLevel != nil && *priceLevel > *params.MaxPriceLevel {
		return false
	}

	if params.ExcludeClosed {
		if permanentlyClosed {
			return false
		}

		if status != "" && status != "OPERATIONAL" {
			return false
		}
	}

	return true
}

type pageInfo struct {
	total   int
	limit   int
	offset  int
	hasMore bool
}

func paginate[T any](items []T, limit, offset int) ([]T, pageInfo) {
	total := len(items)

	if offset < 0 {
		offset = 0
	}

	if limit <= 0 {
		limit = total
	}

	start := offset
	if start > total {
		start = total
	}

	end := start + limit
	if end > total {
		end = total
	}

	return items[start:end], pageInfo{
		total:   total,
		limit:   limit,
		offset:  offset,
		hasMore: offset+limit < total,
	}
}
