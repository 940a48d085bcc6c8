// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"database/sql"
	"errors"
	"log"

	"github.com/mgalea/placedex/places"
)

// Summary counts the outcome of one reconciliation batch.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Total returns the number of records that made it into the table.
func (s *Summary) Total() int {
	return s.Created + s.Updated
}

// Reconcile merges a provider batch into the stores table inside a single
// transaction. Matching order per record: external id, then same name within
// the coordinate tolerance, otherwise insert. A failing record is logged and
// skipped; a failing commit rolls back the whole batch.
func (r *sqlStoreRepository) Reconcile(records []*places.Record) (*Summary, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return &Summary{}, err
	}

	summary := &Summary{}

	for _, record := range records {
		existing, err := matchStore(tx, record)
		if err != nil {
			log.Printf("reconcile: matching %q (%s): %v", record.Name, record.ExternalID, err)
			summary.Skipped++

			continue
		}

		if existing != nil {
			applyRecordToStore(existing, record)

			if err := updateStore(tx, existing); err != nil {
				log.Printf("reconcile: updating %q (%s): %v", record.Name, record.ExternalID, err)
				summary.Skipped++

				continue
			}

			summary.Updated++

			continue
		}

		if err := insertStore(tx, StoreFromRecord(record)); err != nil {
			log.Printf("reconcile: inserting %q (%s): %v", record.Name, record.ExternalID, err)
			summary.Skipped++

			continue
		}

		summary.Created++
	}

	if err := tx.Commit(); err != nil {
		if rErr := tx.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) {
			err = rErr
		}

		return &Summary{}, err
	}

	return summary, nil
}

func matchStore(tx *sql.Tx, record *places.Record) (*Store, error) {
	// Records without an external id can only be identified by name and
	// location; an id lookup with the empty string would glue unrelated
	// places together.
	if record.ExternalID != "" {
		store, err := scanStore(tx.QueryRow(
			`SELECT `+storeColumns+` FROM stores WHERE external_id = ?`, record.ExternalID,
		))
		if err == nil {
			return store, nil
		}

		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	store, err := scanStore(tx.QueryRow(
		`SELECT `+storeColumns+` FROM stores
		 WHERE name = ?
		   AND abs(ST_Y(point) - ?) < ?
		   AND abs(ST_X(point) - ?) < ?`,
		record.Name, record.Point.Lat, nearCoordEpsilon, record.Point.Lng, nearCoordEpsilon,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return store, err
}

// applyRecordToStore overwrites the mutable fields, preserving the surrogate
// id, the stored external id and created_at.
func applyRecordToStore(store *Store, record *places.Record) {
	store.Name = record.Name
	store.Point = record.Point
	store.Address = record.FormattedAddress
	store.Phone = record.Phone
	store.Website = record.Website
	store.Rating = record.Rating
	store.UserRatingsTotal = record.UserRatingsTotal
	store.PriceLevel = record.PriceLevel
	store.BusinessStatus = record.BusinessStatus
	store.PermanentlyClosed = record.PermanentlyClosed
	store.OpeningHours = record.OpeningHours
	store.Types = record.Types
	store.LastVerified = record.LastVerified
}

// Reconcile merges a provider batch of one category into the businesses
// table. Same contract as the store variant, with the category taking part in
// both match steps.
func (r *sqlBusinessRepository) Reconcile(records []*places.Record) (*Summary, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return &Summary{}, err
	}

	summary := &Summary{}

	for _, record := range records {
		existing, err := matchBusiness(tx, record)
		if err != nil {
			log.Printf("reconcile: matching %q (%s/%s): %v", record.Name, record.Category, record.ExternalID, err)
			summary.Skipped++

			continue
		}

		if existing != nil {
			applyRecordToBusiness(existing, record)

			if err := updateBusiness(tx, existing); err != nil {
				log.Printf("reconcile: updating %q (%s/%s): %v", record.Name, record.Category, record.ExternalID, err)
				summary.Skipped++

				continue
			}

			summary.Updated++

			continue
		}

		if err := insertBusiness(tx, BusinessFromRecord(record)); err != nil {
			log.Printf("reconcile: inserting %q (%s/%s): %v", record.Name, record.Category, record.ExternalID, err)
			summary.Skipped++

			continue
		}

		summary.Created++
	}

	if err := tx.Commit(); err != nil {
		if rErr := tx.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) {
			err = rErr
		}

		return &Summary{}, err
	}

	return summary, nil
}

func matchBusiness(tx *sql.Tx, record *places.Record) (*Business, error) {
	if record.ExternalID != "" {
		business, err := scanBusiness(tx.QueryRow(
			`SELECT `+businessColumns+` FROM businesses WHERE external_id = ? AND category = ?`,
			record.ExternalID, record.Category,
		))
		if err == nil {
			return business, nil
		}

		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	business, err := scanBusiness(tx.QueryRow(
		`SELECT `+businessColumns+` FROM businesses
		 WHERE name = ? AND category = ?
		   AND abs(ST_Y(point) - ?) < ?
		   AND abs(ST_X(point) - ?) < ?`,
		record.Name, record.Category,
		record.Point.Lat, nearCoordEpsilon, record.Point.Lng, nearCoordEpsilon,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return business, err
}

func applyRecordToBusiness(business *Business, record *places.Record) {
	business.Name = record.Name
	business.Point = record.Point
	business.Address = record.FormattedAddress
	business.Phone = record.Phone
	business.Website = record.Website
	business.Email = record.Email
	business.Rating = record.Rating
	business.UserRatingsTotal = record.UserRatingsTotal
	business.PriceLevel = record.PriceLevel
	business.BusinessStatus = record.BusinessStatus
	business.PermanentlyClosed = record.PermanentlyClosed
	business.OpeningHours = record.OpeningHours
	business.Types = record.Types
	business.Tags = record.Tags
	business.LastVerified = record.LastVerified
}
