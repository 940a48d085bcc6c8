// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalea/placedex/config"
	"github.com/mgalea/placedex/places"
)

// stubProvider is a canned Provider for API tests.
type stubProvider struct {
	searchRecords []*places.Record
	textRecords   []*places.Record
	detailsRecord *places.Record
}

func (p *stubProvider) Search(_ context.Context, category string) ([]*places.Record, error) {
	if _, err := places.LookupCategory(category); err != nil {
		return nil, err
	}

	return p.searchRecords, nil
}

func (p *stubProvider) Details(_ context.Context, externalID string) (*places.Record, error) {
	if p.detailsRecord != nil && p.detailsRecord.ExternalID == externalID {
		return p.detailsRecord, nil
	}

	return nil, places.ErrNotFound
}

func (p *stubProvider) TextSearch(_ context.Context, _ string) ([]*places.Record, error) {
	return p.textRecords, nil
}

func setupServerTest(t *testing.T, provider places.Provider) (*gin.Engine, *Server, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, storeRepo, businessRepo := setupTestDB(t)

	conf, err := config.New()
	require.NoError(t, err)

	server := NewServer(conf, storeRepo, businessRepo, provider)

	return server.Router(), server, db
}

func storeBody(t *testing.T, externalID, name string, lat, lng float64) *bytes.Buffer {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"external_id": externalID,
		"name":        name,
		"latitude":    lat,
		"longitude":   lng,
	})
	require.NoError(t, err)

	return bytes.NewBuffer(body)
}

func TestCreateStoreAPI(t *testing.T) {
	router, _, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/stores", storeBody(t, "manual_1", "Greens", 35.8978, 14.5125))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var created Store
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Greens", created.Name)

	// Same external id again: conflict.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/stores", storeBody(t, "manual_1", "Other", 35.9, 14.5))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing name: validation error.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/stores", storeBody(t, "manual_2", "", 35.9, 14.5))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Out-of-range latitude: validation error.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/stores", storeBody(t, "manual_3", "Broken", 95.0, 14.5))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreCRUDAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	store := testStore("s1", "Greens", 35.8978, 14.5125)
	require.NoError(t, server.storeRepo.Create(store))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stores/1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/stores/999", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPut, "/api/stores/1", storeBody(t, "s1", "Greens Renamed", 35.8978, 14.5125))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	renamed, err := server.storeRepo.GetByID(store.ID)
	require.NoError(t, err)
	assert.Equal(t, "Greens Renamed", renamed.Name)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodDelete, "/api/stores/1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodDelete, "/api/stores/1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListStoresAPIExcludesClosed(t *testing.T) {
	router, server, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	open := testStore("s1", "Open", 35.89, 14.5)
	require.NoError(t, server.storeRepo.Create(open))

	closed := testStore("s2", "Closed", 35.9, 14.51)
	closed.PermanentlyClosed = true
	require.NoError(t, server.storeRepo.Create(closed))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stores", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var page StorePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Open", page.Items[0].Name)
	assert.False(t, page.HasMore)
}

func TestNearbyStoresAPIValidation(t *testing.T) {
	router, _, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	badRequests := []string{
		"/api/stores/nearby",                                              // missing coordinates
		"/api/stores/nearby?latitude=35.9",                                // missing longitude
		"/api/stores/nearby?latitude=95&longitude=14.5",                   // latitude out of range
		"/api/stores/nearby?latitude=35.9&longitude=14.5&radius=abc",      // non-numeric radius
		"/api/stores/nearby?latitude=35.9&longitude=14.5&limit=0",         // zero limit
		"/api/stores/nearby?latitude=35.9&longitude=14.5&radius=0",        // zero radius
	}

	for _, url := range badRequests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, url, nil)
		router.ServeHTTP(w, req)

		assert.Equalf(t, http.StatusBadRequest, w.Code, "url %s", url)
	}

	// Over-cap radius and limit are clamped, not rejected.
	clamped := []string{
		"/api/stores/nearby?latitude=35.9&longitude=14.5&radius=30000",
		"/api/stores/nearby?latitude=35.9&longitude=14.5&limit=100",
		"/api/stores/nearby?latitude=35.8989&longitude=14.5146",
	}

	for _, url := range clamped {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, url, nil)
		router.ServeHTTP(w, req)

		assert.Equalf(t, http.StatusOK, w.Code, "url %s", url)
	}
}

func TestSearchStoresAPIProximity(t *testing.T) {
	router, server, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	open := testStore("s1", "Greens", 35.8978, 14.5125)
	require.NoError(t, server.storeRepo.Create(open))

	closed := testStore("s2", "Corner Shop", 35.8945, 14.5089)
	closed.BusinessStatus = "CLOSED_TEMPORARILY"
	require.NoError(t, server.storeRepo.Create(closed))

	// Closed stores drop by default.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet,
		"/api/stores/search?latitude=35.8989&longitude=14.5146&radius=3000", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var page StorePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Greens", page.Items[0].Name)
	require.NotNil(t, page.Items[0].DistanceKm)
	assert.Less(t, *page.Items[0].DistanceKm, 3.0)

	// exclude_closed=false brings the temporarily closed store back.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet,
		"/api/stores/search?latitude=35.8989&longitude=14.5146&radius=3000&exclude_closed=false", nil)
	router.ServeHTTP(w, req)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)

	// A lone coordinate is a client error.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/stores/search?latitude=35.9", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshStoresAPI(t *testing.T) {
	provider := &stubProvider{
		searchRecords: []*places.Record{
			testRecord("osm_node_1", "Greens", 35.8978, 14.5125),
			testRecord("osm_node_2", "Lidl", 35.8972, 14.4611),
		},
	}

	router, _, db := setupServerTest(t, provider)
	defer db.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/stores/refresh", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, float64(2), result["created"])
	assert.Equal(t, float64(0), result["updated"])

	// Second refresh with the same upstream data: pure updates.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/stores/refresh", nil)
	router.ServeHTTP(w, req)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, float64(0), result["created"])
	assert.Equal(t, float64(2), result["updated"])
}

func TestTextSearchStoresAPI(t *testing.T) {
	provider := &stubProvider{
		textRecords: []*places.Record{
			testRecord("nominatim_5501", "Greens Supermarket", 35.8978, 14.5125),
		},
	}

	router, server, db := setupServerTest(t, provider)
	defer db.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stores/text-search/greens", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Query string   `json:"query"`
		Items []*Store `json:"items"`
		Total int      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "greens", result.Query)
	assert.Equal(t, 1, result.Total)

	// A read must not write: nothing was persisted.
	_, err := server.storeRepo.GetByExternalID("nominatim_5501")
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := server.storeRepo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPlaceDetailsAPI(t *testing.T) {
	provider := &stubProvider{
		detailsRecord: testRecord("osm_node_1", "Greens", 35.8978, 14.5125),
	}

	router, _, db := setupServerTest(t, provider)
	defer db.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stores/place/osm_node_1/details", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/stores/place/osm_node_404/details", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreStatsAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	require.NoError(t, server.storeRepo.Create(testStore("s1", "Greens", 35.8978, 14.5125)))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stores/stats/overview", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats StoreStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalStores)
	assert.Equal(t, 100.0, stats.RatingCoverage)
}

func TestListCategoriesAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	pharmacy := &Business{
		ExternalID: "b1", Name: "Pharmacy One", Category: "pharmacy",
		Point: testStore("x", "x", 35.899, 14.515).Point,
	}
	require.NoError(t, server.businessRepo.Create(pharmacy))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/businesses/categories", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Categories []categoryInfo `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Categories, 5)

	counts := make(map[string]int)
	for _, cat := range result.Categories {
		counts[cat.Key] = cat.Count
	}

	assert.Equal(t, 1, counts["pharmacy"])
	assert.Equal(t, 0, counts["grocery"])
}

func TestListBusinessesAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	pharmacy := &Business{
		ExternalID: "b1", Name: "St. James Pharmacy", Category: "pharmacy",
		Point: testStore("x", "x", 35.899, 14.515).Point,
	}
	school := &Business{
		ExternalID: "b2", Name: "Valletta Primary", Category: "education",
		Point: testStore("x", "x", 35.897, 14.512).Point,
	}
	require.NoError(t, server.businessRepo.Create(pharmacy))
	require.NoError(t, server.businessRepo.Create(school))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/businesses?category=pharmacy", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var page BusinessPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	// Unknown category is a client error.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/businesses?category=nightclubs", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Proximity mode needs both coordinates.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/businesses?latitude=35.9", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshBusinessesAPI(t *testing.T) {
	router, server, db := setupServerTest(t, &stubProvider{})
	defer db.Close()

	// Unknown category.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/businesses/refresh/nightclubs", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// In-flight refresh: conflict.
	require.True(t, server.tryStartRefresh("pharmacy"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/businesses/refresh/pharmacy", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	server.finishRefresh("pharmacy")

	// Free again: accepted.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/businesses/refresh/pharmacy", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
}
