// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mgalea/placedex/places"
	"github.com/mgalea/placedex/spatial"
)

// BusinessRepository handles persistence of categorized businesses.
type BusinessRepository interface {
	// CreateSchema creates the businesses table
	CreateSchema() error

	// Create inserts a business
	Create(business *Business) error

	// GetByID returns a business by surrogate id
	GetByID(id int64) (*Business, error)

	// GetByExternalID returns a business by provider external id and category
	GetByExternalID(externalID, category string) (*Business, error)

	// FindNearbyByName returns a business of the category with the same name
	// within the coordinate tolerance
	FindNearbyByName(name, category string, point spatial.Point) (*Business, error)

	// Update overwrites the mutable fields of an existing business
	Update(business *Business) error

	// Delete removes a business by id
	Delete(id int64) error

	// All returns every business, optionally restricted to one category
	All(category string) ([]*Business, error)

	// Count returns the number of businesses, optionally per category
	Count(category string) (int, error)

	// CountByCategory returns the per-category breakdown
	CountByCategory() (map[string]int, error)

	// Stats returns the aggregate figures
	Stats() (*BusinessStats, error)

	// Reconcile merges a provider batch of one category into the table
	Reconcile(records []*places.Record) (*Summary, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlBusinessRepository struct {
	db *sql.DB
}

// NewBusinessRepository creates a new business repository.
func NewBusinessRepository(db *sql.DB) BusinessRepository {
	return &sqlBusinessRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlBusinessRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlBusinessRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	// external_id is not UNIQUE here: the same OSM element may legitimately
	// appear under two categories (a pharmacy inside a medical center).
	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS businesses_seq START 1;

		CREATE TABLE IF NOT EXISTS businesses (
			id INTEGER PRIMARY KEY DEFAULT nextval('businesses_seq'),
			external_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			point POINT_2D NOT NULL,
			address VARCHAR,
			phone VARCHAR,
			website VARCHAR,
			email VARCHAR,
			rating DOUBLE,
			user_ratings_total INTEGER,
			price_level INTEGER,
			business_status VARCHAR,
			permanently_closed BOOLEAN DEFAULT FALSE,
			opening_hours VARCHAR,
			types VARCHAR,
			tags VARCHAR,
			h3_res8 UBIGINT,
			last_verified TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

const businessColumns = `
	id, external_id, name, category, point, address, phone, website, email,
	rating, user_ratings_total, price_level, business_status,
	permanently_closed, opening_hours, types, tags, h3_res8,
	last_verified, created_at, updated_at
`

func scanBusiness(row rowScanner) (*Business, error) {
	business := &Business{}

	var address, phone, website, email, status, openingHours, types, tags sql.NullString

	var rating sql.NullFloat64

	var ratingsTotal, priceLevel, h3Res8 sql.NullInt64

	err := row.Scan(
		&business.ID,
		&business.ExternalID,
		&business.Name,
		&business.Category,
		&business.Point,
		&address,
		&phone,
		&website,
		&email,
		&rating,
		&ratingsTotal,
		&priceLevel,
		&status,
		&business.PermanentlyClosed,
		&openingHours,
		&types,
		&tags,
		&h3Res8,
		&business.LastVerified,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	business.Address = address.String
	business.Phone = phone.String
	business.Website = website.String
	business.Email = email.String
	business.BusinessStatus = status.String

	if rating.Valid {
		business.Rating = &rating.Float64
	}

	if ratingsTotal.Valid {
		v := int(ratingsTotal.Int64)
		business.UserRatingsTotal = &v
	}

	if priceLevel.Valid {
		v := int(priceLevel.Int64)
		business.PriceLevel = &v
	}

	if h3Res8.Valid {
		business.H3Res8 = h3Res8.Int64
	}

	if openingHours.Valid {
		business.OpeningHours = decodeJSONColumn[*places.OpeningHours](&openingHours.String)
	}

	if types.Valid {
		business.Types = decodeJSONColumn[[]string](&types.String)
	}

	if tags.Valid {
		business.Tags = decodeJSONColumn[map[string]string](&tags.String)
	}

	return business, nil
}

func insertBusiness(q execer, business *Business) error {
	h3Cell, err := computeH3Cell(business.Point)
	if err != nil {
		return err
	}

	business.H3Res8 = h3Cell

	openingHours, err := encodeJSONColumn(business.OpeningHours)
	if err != nil {
		return err
	}

	types, err := encodeJSONColumn(business.Types)
	if err != nil {
		return err
	}

	tags, err := encodeJSONColumn(business.Tags)
	if err != nil {
		return err
	}

	now := time.Now()
	business.CreatedAt = now
	business.UpdatedAt = now

	if business.LastVerified.IsZero() {
		business.LastVerified = now
	}

	return q.QueryRow(`
		INSERT INTO businesses(
			external_id, name, category, point, address, phone, website, email,
			rating, user_ratings_total, price_level, business_status,
			permanently_closed, opening_hours, types, tags, h3_res8,
			last_verified, created_at, updated_at
		)
		VALUES (?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		business.ExternalID,
		business.Name,
		business.Category,
		business.Point.Lng,
		business.Point.Lat,
		nullIfEmpty(business.Address),
		nullIfEmpty(business.Phone),
		nullIfEmpty(business.Website),
		nullIfEmpty(business.Email),
		business.Rating,
		business.UserRatingsTotal,
		business.PriceLevel,
		nullIfEmpty(business.BusinessStatus),
		business.PermanentlyClosed,
		openingHours,
		types,
		tags,
		business.H3Res8,
		business.LastVerified,
		business.CreatedAt,
		business.UpdatedAt,
	).Scan(&business.ID)
}

func updateBusiness(q execer, business *Business) error {
	h3Cell, err := computeH3Cell(business.Point)
	if err != nil {
		return err
	}

	business.H3Res8 = h3Cell

	openingHours, err := encodeJSONColumn(business.OpeningHours)
	if err != nil {
		return err
	}

	types, err := encodeJSONColumn(business.Types)
	if err != nil {
		return err
	}

	tags, err := encodeJSONColumn(business.Tags)
	if err != nil {
		return err
	}

	business.UpdatedAt = time.Now()

	if business.LastVerified.IsZero() {
		business.LastVerified = business.UpdatedAt
	}

	result, err := q.Exec(`
		UPDATE businesses
		SET name = ?, point = ST_Point(?, ?), address = ?, phone = ?,
		    website = ?, email = ?, rating = ?, user_ratings_total = ?,
		    price_level = ?, business_status = ?, permanently_closed = ?,
		    opening_hours = ?, types = ?, tags = ?, h3_res8 = ?,
		    last_verified = ?, updated_at = ?
		WHERE id = ?
	`,
		business.Name,
		business.Point.Lng,
		business.Point.Lat,
		nullIfEmpty(business.Address),
		nullIfEmpty(business.Phone),
		nullIfEmpty(business.Website),
		nullIfEmpty(business.Email),
		business.Rating,
		business.UserRatingsTotal,
		business.PriceLevel,
		nullIfEmpty(business.BusinessStatus),
		business.PermanentlyClosed,
		openingHours,
		types,
		tags,
		business.H3Res8,
		business.LastVerified,
		business.UpdatedAt,
		business.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *sqlBusinessRepository) Create(business *Business) error {
	return insertBusiness(r.db, business)
}

func (r *sqlBusinessRepository) Update(business *Business) error {
	return updateBusiness(r.db, business)
}

func (r *sqlBusinessRepository) GetByID(id int64) (*Business, error) {
	business, err := scanBusiness(r.db.QueryRow(
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return business, err
}

func (r *sqlBusinessRepository) GetByExternalID(externalID, category string) (*Business, error) {
	business, err := scanBusiness(r.db.QueryRow(
		`SELECT `+businessColumns+` FROM businesses WHERE external_id = ? AND category = ?`,
		externalID, category,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return business, err
}

func (r *sqlBusinessRepository) FindNearbyByName(name, category string, point spatial.Point) (*Business, error) {
	business, err := scanBusiness(r.db.QueryRow(
		`SELECT `+businessColumns+` FROM businesses
		 WHERE name = ? AND category = ?
		   AND abs(ST_Y(point) - ?) < ?
		   AND abs(ST_X(point) - ?) < ?`,
		name, category, point.Lat, nearCoordEpsilon, point.Lng, nearCoordEpsilon,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return business, err
}

func (r *sqlBusinessRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *sqlBusinessRepository) All(category string) ([]*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses`

	args := []any{}

	if category != "" {
		query += ` WHERE category = ?`

		args = append(args, category)
	}

	query += ` ORDER BY name, id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []*Business

	for rows.Next() {
		business, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}

		businesses = append(businesses, business)
	}

	return businesses, rows.Err()
}

func (r *sqlBusinessRepository) Count(category string) (int, error) {
	query := `SELECT COUNT(*) FROM businesses`

	args := []any{}

	if category != "" {
		query += ` WHERE category = ?`

		args = append(args, category)
	}

	var count int
	err := r.db.QueryRow(query, args...).Scan(&count)

	return count, err
}

func (r *sqlBusinessRepository) CountByCategory() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT category, COUNT(*) FROM businesses GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var category string

		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}

		counts[category] = count
	}

	return counts, rows.Err()
}
