// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package directory persists the indexed places, reconciles provider refreshes
// against the stored rows, and serves the HTTP API.
package directory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/mgalea/placedex/places"
	"github.com/mgalea/placedex/spatial"
)

// h3Resolution is the cell resolution stored per row; res 8 cells are about
// 0.7 km² which is fine-grained enough for coverage stats over one region.
const h3Resolution = 8

// Store is a persisted grocery store. The category is implicit.
type Store struct {
	ID                int64                `json:"id"`
	ExternalID        string               `json:"external_id"`
	Name              string               `json:"name"`
	Point             spatial.Point        `json:"point"`
	Address           string               `json:"address,omitempty"`
	Phone             string               `json:"phone_number,omitempty"`
	Website           string               `json:"website,omitempty"`
	Rating            *float64             `json:"rating,omitempty"`
	UserRatingsTotal  *int                 `json:"user_ratings_total,omitempty"`
	PriceLevel        *int                 `json:"price_level,omitempty"`
	BusinessStatus    string               `json:"business_status,omitempty"`
	PermanentlyClosed bool                 `json:"permanently_closed"`
	OpeningHours      *places.OpeningHours `json:"opening_hours,omitempty"`
	Types             []string             `json:"types,omitempty"`
	H3Res8            int64                `json:"-"`
	LastVerified      time.Time            `json:"last_verified"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`

	// DistanceKm is only populated by proximity searches.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Business is a persisted categorized place.
type Business struct {
	ID                int64                `json:"id"`
	ExternalID        string               `json:"external_id"`
	Name              string               `json:"name"`
	Category          string               `json:"category"`
	Point             spatial.Point        `json:"point"`
	Address           string               `json:"address,omitempty"`
	Phone             string               `json:"phone_number,omitempty"`
	Website           string               `json:"website,omitempty"`
	Email             string               `json:"email,omitempty"`
	Rating            *float64             `json:"rating,omitempty"`
	UserRatingsTotal  *int                 `json:"user_ratings_total,omitempty"`
	PriceLevel        *int                 `json:"price_level,omitempty"`
	BusinessStatus    string               `json:"business_status,omitempty"`
	PermanentlyClosed bool                 `json:"permanently_closed"`
	OpeningHours      *places.OpeningHours `json:"opening_hours,omitempty"`
	Types             []string             `json:"types,omitempty"`
	Tags              map[string]string    `json:"tags,omitempty"`
	H3Res8            int64                `json:"-"`
	LastVerified      time.Time            `json:"last_verified"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`

	// DistanceKm is only populated by proximity searches.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// computeH3Cell maps a point to its resolution-8 cell.
func computeH3Cell(p spatial.Point) (int64, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), h3Resolution)
	if err != nil {
		return 0, fmt.Errorf("converting to h3 cell: %w", err)
	}

	return int64(cell), nil
}

// StoreFromRecord maps a provider record onto the store entity.
func StoreFromRecord(r *places.Record) *Store {
	return &Store{
		ExternalID:        r.ExternalID,
		Name:              r.Name,
		Point:             r.Point,
		Address:           r.FormattedAddress,
		Phone:             r.Phone,
		Website:           r.Website,
		Rating:            r.Rating,
		UserRatingsTotal:  r.UserRatingsTotal,
		PriceLevel:        r.PriceLevel,
		BusinessStatus:    r.BusinessStatus,
		PermanentlyClosed: r.PermanentlyClosed,
		OpeningHours:      r.OpeningHours,
		Types:             r.Types,
		LastVerified:      r.LastVerified,
	}
}

// BusinessFromRecord maps a provider record onto the business entity.
func BusinessFromRecord(r *places.Record) *Business {
	return &Business{
		ExternalID:        r.ExternalID,
		Name:              r.Name,
		Category:          r.Category,
		Point:             r.Point,
		Address:           r.FormattedAddress,
		Phone:             r.Phone,
		Website:           r.Website,
		Email:             r.Email,
		Rating:            r.Rating,
		UserRatingsTotal:  r.UserRatingsTotal,
		PriceLevel:        r.PriceLevel,
		BusinessStatus:    r.BusinessStatus,
		PermanentlyClosed: r.PermanentlyClosed,
		OpeningHours:      r.OpeningHours,
		Types:             r.Types,
		Tags:              r.Tags,
		LastVerified:      r.LastVerified,
	}
}

// encodeJSONColumn serializes a value for a JSON text column. Nil-ish values
// become NULL.
func encodeJSONColumn(v any) (*string, error) {
	switch t := v.(type) {
	case *places.OpeningHours:
		if t == nil {
			return nil, nil
		}
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	case map[string]string:
		if len(t) == 0 {
			return nil, nil
		}
	case nil:
		return nil, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding json column: %w", err)
	}

	s := string(raw)

	return &s, nil
}

// decodeJSONColumn deserializes a JSON text column. NULL and malformed
// payloads decode to the zero value; a broken row must not break a listing.
func decodeJSONColumn[T any](raw *string) T {
	var out T

	if raw == nil || *raw == "" {
		return out
	}

	if err := json.Unmarshal([]byte(*raw), &out); err != nil {
		var zero T

		return zero
	}

	return out
}
