// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mgalea/placedex/places"
	"github.com/mgalea/placedex/spatial"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateExternalID is returned when a create collides with an existing
// external id.
var ErrDuplicateExternalID = errors.New("external id already exists")

// nearCoordEpsilon is the coordinate tolerance for the name+location fallback
// match during reconciliation, roughly a hundred meters.
const nearCoordEpsilon = 0.001

// StoreRepository handles persistence of grocery stores.
type StoreRepository interface {
	// CreateSchema creates the stores table
	CreateSchema() error

	// Create inserts a store; ErrDuplicateExternalID on external id collision
	Create(store *Store) error

	// GetByID returns a store by surrogate id
	GetByID(id int64) (*Store, error)

	// GetByExternalID returns a store by provider external id
	GetByExternalID(externalID string) (*Store, error)

	// FindNearbyByName returns a store with the same name within the
	// coordinate tolerance
	FindNearbyByName(name string, point spatial.Point) (*Store, error)

	// Update overwrites the mutable fields of an existing store
	Update(store *Store) error

	// Delete removes a store by id
	Delete(id int64) error

	// List returns a page of stores plus the unpaginated total
	List(limit, offset int, includeClosed bool) ([]*Store, int, error)

	// All returns every store
	All() ([]*Store, error)

	// FindInBounds returns a page of stores inside a bounding rectangle plus
	// the unpaginated total
	FindInBounds(bounds spatial.Bounds, limit, offset int) ([]*Store, int, error)

	// Count returns the total number of stores
	Count() (int, error)

	// Stats returns the overview aggregates
	Stats() (*StoreStats, error)

	// Reconcile merges a provider batch into the table
	Reconcile(records []*places.Record) (*Summary, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlStoreRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a new store repository.
func NewStoreRepository(db *sql.DB) StoreRepository {
	return &sqlStoreRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlStoreRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlStoreRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS stores_seq START 1;

		CREATE TABLE IF NOT EXISTS stores (
			id INTEGER PRIMARY KEY DEFAULT nextval('stores_seq'),
			external_id VARCHAR UNIQUE,
			name VARCHAR NOT NULL,
			point POINT_2D NOT NULL,
			address VARCHAR,
			phone VARCHAR,
			website VARCHAR,
			rating DOUBLE,
			user_ratings_total INTEGER,
			price_level INTEGER,
			business_status VARCHAR,
			permanently_closed BOOLEAN DEFAULT FALSE,
			opening_hours VARCHAR,
			types VARCHAR,
			h3_res8 UBIGINT,
			last_verified TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

const storeColumns = `
	id, external_id, name, point, address, phone, website,
	rating, user_ratings_total, price_level, business_status,
	permanently_closed, opening_hours, types, h3_res8,
	last_verified, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStore(row rowScanner) (*Store, error) {
	store := &Store{}

	var externalID, address, phone, website, status, openingHours, types sql.NullString

	var rating sql.NullFloat64

	var ratingsTotal, priceLevel, h3Res8 sql.NullInt64

	err := row.Scan(
		&store.ID,
		&externalID,
		&store.Name,
		&store.Point,
		&address,
		&phone,
		&website,
		&rating,
		&ratingsTotal,
		&priceLevel,
		&status,
		&store.PermanentlyClosed,
		&openingHours,
		&types,
		&h3Res8,
		&store.LastVerified,
		&store.CreatedAt,
		&store.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	store.ExternalID = externalID.String
	store.Address = address.String
	store.Phone = phone.String
	store.Website = website.String
	store.BusinessStatus = status.String

	if rating.Valid {
		store.Rating = &rating.Float64
	}

	if ratingsTotal.Valid {
		v := int(ratingsTotal.Int64)
		store.UserRatingsTotal = &v
	}

	if priceLevel.Valid {
		v := int(priceLevel.Int64)
		store.PriceLevel = &v
	}

	if h3Res8.Valid {
		store.H3Res8 = h3Res8.Int64
	}

	if openingHours.Valid {
		store.OpeningHours = decodeJSONColumn[*places.OpeningHours](&openingHours.String)
	}

	if types.Valid {
		store.Types = decodeJSONColumn[[]string](&types.String)
	}

	return store, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func insertStore(q execer, store *Store) error {
	h3Cell, err := computeH3Cell(store.Point)
	if err != nil {
		return err
	}

	store.H3Res8 = h3Cell

	openingHours, err := encodeJSONColumn(store.OpeningHours)
	if err != nil {
		return err
	}

	types, err := encodeJSONColumn(store.Types)
	if err != nil {
		return err
	}

	now := time.Now()
	store.CreatedAt = now
	store.UpdatedAt = now

	if store.LastVerified.IsZero() {
		store.LastVerified = now
	}

	return q.QueryRow(`
		INSERT INTO stores(
			external_id, name, point, address, phone, website,
			rating, user_ratings_total, price_level, business_status,
			permanently_closed, opening_hours, types, h3_res8,
			last_verified, created_at, updated_at
		)
		VALUES (?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		nullIfEmpty(store.ExternalID),
		store.Name,
		store.Point.Lng,
		store.Point.Lat,
		nullIfEmpty(store.Address),
		nullIfEmpty(store.Phone),
		nullIfEmpty(store.Website),
		store.Rating,
		store.UserRatingsTotal,
		store.PriceLevel,
		nullIfEmpty(store.BusinessStatus),
		store.PermanentlyClosed,
		openingHours,
		types,
		store.H3Res8,
		store.LastVerified,
		store.CreatedAt,
		store.UpdatedAt,
	).Scan(&store.ID)
}

func updateStore(q execer, store *Store) error {
	h3Cell, err := computeH3Cell(store.Point)
	if err != nil {
		return err
	}

	store.H3Res8 = h3Cell

	openingHours, err := encodeJSONColumn(store.OpeningHours)
	if err != nil {
		return err
	}

	types, err := encodeJSONColumn(store.Types)
	if err != nil {
		return err
	}

	store.UpdatedAt = time.Now()

	if store.LastVerified.IsZero() {
		store.LastVerified = store.UpdatedAt
	}

	result, err := q.Exec(`
		UPDATE stores
		SET name = ?, point = ST_Point(?, ?), address = ?, phone = ?,
		    website = ?, rating = ?, user_ratings_total = ?, price_level = ?,
		    business_status = ?, permanently_closed = ?, opening_hours = ?,
		    types = ?, h3_res8 = ?, last_verified = ?, updated_at = ?
		WHERE id = ?
	`,
		store.Name,
		store.Point.Lng,
		store.Point.Lat,
		nullIfEmpty(store.Address),
		nullIfEmpty(store.Phone),
		nullIfEmpty(store.Website),
		store.Rating,
		store.UserRatingsTotal,
		store.PriceLevel,
		nullIfEmpty(store.BusinessStatus),
		store.PermanentlyClosed,
		openingHours,
		types,
		store.H3Res8,
		store.LastVerified,
		store.UpdatedAt,
		store.ID,
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

func (r *sqlStoreRepository) Create(store *Store) error {
	if _, err := r.GetByExternalID(store.ExternalID); err == nil {
		return ErrDuplicateExternalID
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return insertStore(r.db, store)
}

func (r *sqlStoreRepository) Update(store *Store) error {
	return updateStore(r.db, store)
}

func (r *sqlStoreRepository) GetByID(id int64) (*Store, error) {
	store, err := scanStore(r.db.QueryRow(
		`SELECT `+storeColumns+` FROM stores WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return store, err
}

func (r *sqlStoreRepository) GetByExternalID(externalID string) (*Store, error) {
	store, err := scanStore(r.db.QueryRow(
		`SELECT `+storeColumns+` FROM stores WHERE external_id = ?`, externalID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return store, err
}

func (r *sqlStoreRepository) FindNearbyByName(name string, point spatial.Point) (*Store, error) {
	store, err := scanStore(r.db.QueryRow(
		`SELECT `+storeColumns+` FROM stores
		 WHERE name = ?
		   AND abs(ST_Y(point) - ?) < ?
		   AND abs(ST_X(point) - ?) < ?`,
		name, point.Lat, nearCoordEpsilon, point.Lng, nearCoordEpsilon,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return store, err
}

func (r *sqlStoreRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM stores WHERE id = ?`, id)
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

func (r *sqlStoreRepository) list(query string, args []any) ([]*Store, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []*Store

	for rows.Next() {
		store, err := scanStore(rows)
		if err != nil {
			return nil, err
		}

		stores = append(stores, store)
	}

	return stores, rows.Err()
}

func (r *sqlStoreRepository) List(limit, offset int, includeClosed bool) ([]*Store, int, error) {
	var where string
	if !includeClosed {
		where = ` WHERE NOT permanently_closed`
	}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM stores` + where).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + storeColumns + ` FROM stores` + where + ` ORDER BY name, id`

	args := []any{}

	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`

		args = append(args, limit, offset)
	}

	stores, err := r.list(query, args)

	return stores, total, err
}

func (r *sqlStoreRepository) All() ([]*Store, error) {
	return r.list(`SELECT `+storeColumns+` FROM stores ORDER BY name, id`, []any{})
}

func (r *sqlStoreRepository) FindInBounds(bounds spatial.Bounds, limit, offset int) ([]*Store, int, error) {
	where := ` FROM stores
		WHERE ST_Y(point) BETWEEN ? AND ?
		  AND ST_X(point) BETWEEN ? AND ?`

	args := []any{bounds.South, bounds.North, bounds.West, bounds.East}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + storeColumns + where + ` ORDER BY id`

	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`

		args = append(args, limit, offset)
	}

	stores, err := r.list(query, args)

	return stores, total, err
}

func (r *sqlStoreRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM stores`).Scan(&count)

	return count, err
}

func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return &s
}
