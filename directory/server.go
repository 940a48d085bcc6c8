// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mgalea/placedex/config"
	"github.com/mgalea/placedex/places"
)

// Proximity query caps. The radius cap matches the configured region scale;
// anything larger than 25 km is no longer "nearby" on a single island.
const (
	maxNearbyRadiusMeters = 25000
	maxNearbyLimit        = 50
	defaultNearbyLimit    = 20
	defaultListLimit      = 100
)

// Server wires the repositories and the place provider behind the HTTP API.
type Server struct {
	conf         *config.Config
	storeRepo    StoreRepository
	businessRepo BusinessRepository
	provider     places.Provider

	refreshMu  sync.Mutex
	refreshing map[string]bool
}

// NewServer creates the API server.
func NewServer(conf *config.Config, storeRepo StoreRepository, businessRepo BusinessRepository, provider places.Provider) *Server {
	return &Server{
		conf:         conf,
		storeRepo:    storeRepo,
		businessRepo: businessRepo,
		provider:     provider,
		refreshing:   make(map[string]bool),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/stores", s.listStores)
	r.GET("/api/stores/search", s.searchStores)
	r.GET("/api/stores/nearby", s.nearbyStores)
	r.POST("/api/stores", s.createStore)
	r.GET("/api/stores/:id", s.getStore)
	r.PUT("/api/stores/:id", s.updateStore)
	r.DELETE("/api/stores/:id", s.deleteStore)
	r.POST("/api/stores/refresh", s.refreshStores)
	r.GET("/api/stores/text-search/:query", s.textSearchStores)
	r.GET("/api/stores/place/:id/details", s.placeDetails)
	r.GET("/api/stores/stats/overview", s.storeStats)

	r.GET("/api/businesses", s.listBusinesses)
	r.GET("/api/businesses/categories", s.listCategories)
	r.GET("/api/businesses/stats", s.businessStats)
	r.GET("/api/businesses/:id", s.getBusiness)
	r.POST("/api/businesses/refresh/:category", s.refreshBusinesses)

	return r
}

// Run starts the server on the configured listen address.
func (s *Server) Run() error {
	return s.Router().Run(s.conf.Listen)
}

// tryStartRefresh marks a category refresh as in flight. Returns false when
// one is already running.
func (s *Server) tryStartRefresh(category string) bool {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.refreshing[category] {
		return false
	}

	s.refreshing[category] = true

	return true
}

func (s *Server) finishRefresh(category string) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	delete(s.refreshing, category)
}

// nearbyRadius parses the radius parameter. Over-cap values are clamped to
// the maximum rather than rejected; nonpositive ones are an error.
func (s *Server) nearbyRadius(ctx *gin.Context) (int, error) {
	radius, err := queryInt(ctx, "radius", s.conf.Search.RadiusMeters)
	if err != nil {
		return 0, err
	}

	if radius <= 0 {
		return 0, fmt.Errorf("radius must be a positive number of meters")
	}

	if radius > maxNearbyRadiusMeters {
		radius = maxNearbyRadiusMeters
	}

	return radius, nil
}

func queryInt(ctx *gin.Context, name string, fallback int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}

	return v, nil
}

func queryFloat(ctx *gin.Context, name string) (*float64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}

	return &v, nil
}

func validCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %f out of range", lat)
	}

	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %f out of range", lng)
	}

	return nil
}
