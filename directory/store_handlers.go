// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mgalea/placedex/places"
	"github.com/mgalea/placedex/spatial"
)

func (s *Server) listStores(ctx *gin.Context) {
	limit, err := queryInt(ctx, "limit", defaultListLimit)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	skip, err := queryInt(ctx, "skip", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	stores, total, err := s.storeRepo.List(limit, skip, false)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if stores == nil {
		stores = []*Store{}
	}

	ctx.JSON(http.StatusOK, StorePage{
		Items:   stores,
		Total:   total,
		Limit:   limit,
		Offset:  skip,
		HasMore: skip+limit < total,
	})
}

func (s *Server) searchStores(ctx *gin.Context) {
	params := SearchParams{
		Query:         ctx.Query("query"),
		ExcludeClosed: ctx.DefaultQuery("exclude_closed", "true") == "true",
	}

	var err error

	if params.MinRating, err = queryFloat(ctx, "min_rating"); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if raw := ctx.Query("max_price_level"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 4 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "max_price_level must be an integer between 0 and 4"})

			return
		}

		params.MaxPriceLevel = &v
	}

	if params.Limit, err = queryInt(ctx, "limit", defaultListLimit); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if params.Offset, err = queryInt(ctx, "offset", 0); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	lat, err := queryFloat(ctx, "latitude")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	lng, err := queryFloat(ctx, "longitude")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if lat != nil || lng != nil {
		if lat == nil || lng == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be provided together"})

			return
		}

		if err := validCoordinates(*lat, *lng); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		radius, err := s.nearbyRadius(ctx)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		params.Latitude = lat
		params.Longitude = lng
		params.RadiusMeters = radius
	}

	page, err := SearchStores(s.storeRepo, params)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if page.Items == nil {
		page.Items = []*Store{}
	}

	ctx.JSON(http.StatusOK, page)
}

func (s *Server) nearbyStores(ctx *gin.Context) {
	lat, err := queryFloat(ctx, "latitude")
	if err != nil || lat == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "latitude query parameter is required"})

		return
	}

	lng, err := queryFloat(ctx, "longitude")
	if err != nil || lng == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "longitude query parameter is required"})

		return
	}

	if err := validCoordinates(*lat, *lng); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	radius, err := s.nearbyRadius(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	limit, err := queryInt(ctx, "limit", defaultNearbyLimit)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if limit <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})

		return
	}

	if limit > maxNearbyLimit {
		limit = maxNearbyLimit
	}

	offset, err := queryInt(ctx, "offset", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	page, err := NearbyStores(s.storeRepo, NearbyParams{
		Center:       spatial.Point{Lat: *lat, Lng: *lng},
		RadiusMeters: radius,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if page.Items == nil {
		page.Items = []*Store{}
	}

	ctx.JSON(http.StatusOK, page)
}

func (s *Server) getStore(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})

		return
	}

	store, err := s.storeRepo.GetByID(id)
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "store not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, store)
}

// storePayload is the write shape for create and update.
type storePayload struct {
	ExternalID        string               `json:"external_id"`
	Name              string               `json:"name"`
	Latitude          float64              `json:"latitude"`
	Longitude         float64              `json:"longitude"`
	Address           string               `json:"address"`
	Phone             string               `json:"phone_number"`
	Website           string               `json:"website"`
	Rating            *float64             `json:"rating"`
	UserRatingsTotal  *int                 `json:"user_ratings_total"`
	PriceLevel        *int                 `json:"price_level"`
	BusinessStatus    string               `json:"business_status"`
	PermanentlyClosed bool                 `json:"permanently_closed"`
	OpeningHours      *places.OpeningHours `json:"opening_hours"`
	Types             []string             `json:"types"`
}

func (p *storePayload) validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}

	if p.ExternalID == "" {
		return errors.New("external_id is required")
	}

	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return errors.New("rating must be between 0 and 5")
	}

	if p.PriceLevel != nil && (*p.PriceLevel < 0 || *p.PriceLevel > 4) {
		return errors.New("price_level must be between 0 and 4")
	}

	return validCoordinates(p.Latitude, p.Longitude)
}

func (p *storePayload) apply(store *Store) {
	store.ExternalID = p.ExternalID
	store.Name = p.Name
	store.Point = spatial.Point{Lat: p.Latitude, Lng: p.Longitude}
	store.Address = p.Address
	store.Phone = p.Phone
	store.Website = p.Website
	store.Rating = p.Rating
	store.UserRatingsTotal = p.UserRatingsTotal
	store.PriceLevel = p.PriceLevel
	store.BusinessStatus = p.BusinessStatus
	store.PermanentlyClosed = p.PermanentlyClosed
	store.OpeningHours = p.OpeningHours
	store.Types = p.Types
}

func (s *Server) createStore(ctx *gin.Context) {
	var payload storePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := payload.validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	store := &Store{}
	payload.apply(store)

	err := s.storeRepo.Create(store)
	if errors.Is(err, ErrDuplicateExternalID) {
		ctx.JSON(http.StatusConflict, gin.H{"error": "a store with this external_id already exists"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusCreated, store)
}

func (s *Server) updateStore(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})

		return
	}

	store, err := s.storeRepo.GetByID(id)
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "store not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	var payload storePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := payload.validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	payload.apply(store)

	if err := s.storeRepo.Update(store); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, store)
}

func (s *Server) deleteStore(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})

		return
	}

	err = s.storeRepo.Delete(id)
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "store not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// refreshStores runs a synchronous fetch-and-reconcile of the grocery
// dataset. The response is always 200 with a structured outcome so operators
// can distinguish "upstream was down" from "nothing changed".
func (s *Server) refreshStores(ctx *gin.Context) {
	records, err := s.provider.Search(ctx.Request.Context(), places.CategoryGrocery)
	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "fetching stores failed: " + err.Error(),
		})

		return
	}

	summary, err := s.storeRepo.Reconcile(records)
	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "storing stores failed: " + err.Error(),
		})

		return
	}

	log.Printf("store refresh: %d fetched, %d created, %d updated, %d skipped",
		len(records), summary.Created, summary.Updated, summary.Skipped)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"fetched": len(records),
		"created": summary.Created,
		"updated": summary.Updated,
		"skipped": summary.Skipped,
	})
}

// textSearchStores queries the provider with a free-form string and returns
// the hits without persisting them; refresh is the only write path.
func (s *Server) textSearchStores(ctx *gin.Context) {
	query := ctx.Param("query")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})

		return
	}

	records, err := s.provider.TextSearch(ctx.Request.Context(), query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	items := make([]*Store, 0, len(records))
	for _, record := range records {
		items = append(items, StoreFromRecord(record))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"query": query,
		"items": items,
		"total": len(items),
	})
}

func (s *Server) placeDetails(ctx *gin.Context) {
	externalID := ctx.Param("id")

	record, err := s.provider.Details(ctx.Request.Context(), externalID)
	if errors.Is(err, places.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "place not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, record)
}

func (s *Server) storeStats(ctx *gin.Context) {
	stats, err := s.storeRepo.Stats()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, stats)
}
