// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"errors"
	"net/http"
	"testing"
)

func TestLookupCategory(t *testing.T) {
	for _, key := range []string{"grocery", "education", "religion", "medical", "pharmacy"} {
		cat, err := LookupCategory(key)
		if err != nil {
			t.Errorf("LookupCategory(%q): %v", key, err)

			continue
		}

		if cat.Name == "" || cat.Icon == "" {
			t.Errorf("%s: incomplete category: %+v", key, cat)
		}

		if len(cat.OverpassFilters) == 0 || len(cat.GoogleTypes) == 0 {
			t.Errorf("%s: category has no provider query mapping", key)
		}
	}

	if _, err := LookupCategory("nightclubs"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	got := Categories()
	got[0].Key = "mutated"

	if Categories()[0].Key != CategoryGrocery {
		t.Error("Categories must not expose the internal slice")
	}
}

func TestTypeTags(t *testing.T) {
	cases := []struct {
		tags     map[string]string
		category string
		want     string
	}{
		{map[string]string{"shop": "supermarket"}, CategoryGrocery, "supermarket"},
		{map[string]string{"shop": "convenience"}, CategoryGrocery, "convenience_store"},
		{map[string]string{"amenity": "place_of_worship", "religion": "christian"}, "religion", "christian_place_of_worship"},
		{map[string]string{"healthcare": "dentist"}, "medical", "healthcare_dentist"},
		{map[string]string{}, "education", "education"},
	}

	for _, c := range cases {
		got := typeTags(c.tags, c.category)
		if len(got) == 0 || got[0] != c.want {
			t.Errorf("typeTags(%v, %q) = %v, want first %q", c.tags, c.category, got, c.want)
		}
	}
}

func TestClassifyHTTPError(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusBadGateway, ErrorTypeNetworkError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, c := range cases {
		if got := ClassifyHTTPError(c.status); got.Type != c.want {
			t.Errorf("ClassifyHTTPError(%d).Type = %v, want %v", c.status, got.Type, c.want)
		}
	}
}

func TestIsRateLimitError(t *testing.T) {
	if !IsRateLimitError(ClassifyHTTPError(http.StatusTooManyRequests)) {
		t.Error("classified 429 should be a rate limit error")
	}

	if !IsRateLimitError(errors.New("upstream said: too many requests")) {
		t.Error("message matching should detect throttling")
	}

	if IsRateLimitError(errors.New("connection refused")) {
		t.Error("unrelated error misclassified as rate limit")
	}

	if IsRateLimitError(nil) {
		t.Error("nil error misclassified as rate limit")
	}

	if IsTimeoutError(nil) {
		t.Error("nil error misclassified as timeout")
	}
}
