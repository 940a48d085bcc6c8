// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgalea/placedex/places"
	"github.com/mgalea/placedex/spatial"
)

// backgroundRefreshTimeout bounds a detached category refresh; Overpass can
// be slow but not minutes-slow.
const backgroundRefreshTimeout = 5 * time.Minute

func (s *Server) listBusinesses(ctx *gin.Context) {
	category := ctx.Query("category")
	if category != "" {
		if _, err := places.LookupCategory(category); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}
	}

	params := SearchParams{
		Query:         ctx.Query("query"),
		ExcludeClosed: ctx.Query("exclude_closed") == "true",
	}

	var err error

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

	var near *NearbyParams

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

		near = &NearbyParams{
			Center:       spatial.Point{Lat: *lat, Lng: *lng},
			RadiusMeters: radius,
		}
	}

	page, err := SearchBusinesses(s.businessRepo, category, params, near)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if page.Items == nil {
		page.Items = []*Business{}
	}

	ctx.JSON(http.StatusOK, page)
}

// categoryInfo is a configured category plus its live row count.
type categoryInfo struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

func (s *Server) listCategories(ctx *gin.Context) {
	counts, err := s.businessRepo.CountByCategory()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	categories := places.Categories()
	out := make([]categoryInfo, 0, len(categories))

	for _, cat := range categories {
		out = append(out, categoryInfo{
			Key:   cat.Key,
			Name:  cat.Name,
			Icon:  cat.Icon,
			Count: counts[cat.Key],
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"categories": out})
}

func (s *Server) businessStats(ctx *gin.Context) {
	stats, err := s.businessRepo.Stats()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (s *Server) getBusiness(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})

		return
	}

	business, err := s.businessRepo.GetByID(id)
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "business not found"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, business)
}

// refreshBusinesses kicks off a background fetch-and-reconcile for one
// category. At most one refresh per category runs at a time; a second request
// while one is in flight gets a 409.
func (s *Server) refreshBusinesses(ctx *gin.Context) {
	category := ctx.Param("category")
	if _, err := places.LookupCategory(category); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if !s.tryStartRefresh(category) {
		ctx.JSON(http.StatusConflict, gin.H{
			"error": "a refresh for this category is already running",
		})

		return
	}

	go s.runBusinessRefresh(category)

	ctx.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"message":  "refresh started",
		"category": category,
	})
}

func (s *Server) runBusinessRefresh(category string) {
	defer s.finishRefresh(category)

	refreshCtx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
	defer cancel()

	records, err := s.provider.Search(refreshCtx, category)
	if err != nil {
		log.Printf("business refresh %s: fetch failed: %v", category, err)

		return
	}

	summary, err := s.businessRepo.Reconcile(records)
	if err != nil {
		log.Printf("business refresh %s: reconcile failed: %v", category, err)

		return
	}

	log.Printf("business refresh %s: %d fetched, %d created, %d updated, %d skipped",
		category, len(records), summary.Created, summary.Updated, summary.Skipped)
}
