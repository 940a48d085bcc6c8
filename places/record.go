// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package places fetches point-of-interest candidates from third-party place
// data providers and normalizes them into a canonical record shape.
package places

import (
	"context"
	"errors"
	"time"

	"github.com/mgalea/placedex/spatial"
)

// ErrNotFound is returned by Details when the provider has no such place.
var ErrNotFound = errors.New("place not found")

// OpeningHours is the structured opening-hours shape shared by all providers.
// Sources rarely agree on a format, so the raw string is kept alongside
// whatever could be derived from it.
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	Is247       bool     `json:"is_24_7,omitempty"`
	Raw         string   `json:"raw,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Record is the canonical place record every provider variant produces.
// Name and coordinates are mandatory; a candidate missing either is discarded
// by the provider before it ever reaches the caller.
type Record struct {
	ExternalID        string            `json:"external_id"`
	Name              string            `json:"name"`
	Point             spatial.Point     `json:"point"`
	FormattedAddress  string            `json:"formatted_address,omitempty"`
	Category          string            `json:"category,omitempty"`
	Phone             string            `json:"phone_number,omitempty"`
	Website           string            `json:"website,omitempty"`
	Email             string            `json:"email,omitempty"`
	Rating            *float64          `json:"rating,omitempty"`
	UserRatingsTotal  *int              `json:"user_ratings_total,omitempty"`
	PriceLevel        *int              `json:"price_level,omitempty"`
	BusinessStatus    string            `json:"business_status,omitempty"`
	PermanentlyClosed bool              `json:"permanently_closed"`
	OpeningHours      *OpeningHours     `json:"opening_hours,omitempty"`
	Types             []string          `json:"types,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
	OSMID             int64             `json:"osm_id,omitempty"`
	OSMType           string            `json:"osm_type,omitempty"`
	LastVerified      time.Time         `json:"last_verified"`
}

// Provider is the contract every place-data source variant satisfies. The
// server and the reconciler are variant-agnostic: the variant is chosen once,
// at startup, from configuration.
//
// Search and TextSearch degrade on upstream failure: a total fetch failure is
// logged inside the provider and surfaces as an empty slice, so a third-party
// outage means "no new data", not a crashed refresh. The error return is
// reserved for caller mistakes such as an unknown category.
type Provider interface {
	// Search fetches all candidates for a category within the configured region.
	Search(ctx context.Context, category string) ([]*Record, error)

	// Details fetches a single place by its provider-specific external id.
	Details(ctx context.Context, externalID string) (*Record, error)

	// TextSearch fetches candidates matching a free-form query.
	TextSearch(ctx context.Context, query string) ([]*Record, error)
}
