// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package places

import "fmt"

// CategoryGrocery is the implicit category of the grocery-store dataset.
const CategoryGrocery = "grocery"

// Category describes one indexable business category and how each provider
// variant queries it.
type Category struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Icon string `json:"icon"`

	// OverpassFilters are tag filters applied to node/way/relation statements,
	// e.g. `["shop"~"^(supermarket|grocery|convenience)$"]`.
	OverpassFilters []string `json:"-"`

	// GoogleTypes are the Places API types queried for this category.
	GoogleTypes []string `json:"-"`
}

// The fixed category set. Order is the presentation order of the
// /businesses/categories endpoint.
var categories = []Category{
	{
		Key:             CategoryGrocery,
		Name:            "Grocery Stores & Supermarkets",
		Icon:            "🛒",
		OverpassFilters: []string{`["shop"~"^(supermarket|grocery|convenience)$"]["name"]`},
		GoogleTypes:     []string{"grocery_or_supermarket", "supermarket", "food", "store"},
	},
	{
		Key:             "education",
		Name:            "Education Institutions",
		Icon:            "🎓",
		OverpassFilters: []string{`["amenity"~"^(university|college|school|kindergarten)$"]["name"]`},
		GoogleTypes:     []string{"school", "university"},
	},
	{
		Key:             "religion",
		Name:            "Churches & Religious Sites",
		Icon:            "⛪",
		OverpassFilters: []string{`["amenity"="place_of_worship"]["name"]`},
		GoogleTypes:     []string{"church", "mosque", "synagogue"},
	},
	{
		Key:  "medical",
		Name: "Hospitals & Medical Centers",
		Icon: "🏥",
		OverpassFilters: []string{
			`["amenity"~"^(hospital|clinic|doctors)$"]["name"]`,
			`["healthcare"]["name"]`,
		},
		GoogleTypes: []string{"hospital", "doctor"},
	},
	{
		Key:             "pharmacy",
		Name:            "Pharmacies",
		Icon:            "💊",
		OverpassFilters: []string{`["amenity"="pharmacy"]["name"]`},
		GoogleTypes:     []string{"pharmacy", "drugstore"},
	},
}

// Categories returns the fixed category set in presentation order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)

	return out
}

// LookupCategory finds a category by key.
func LookupCategory(key string) (Category, error) {
	for _, c := range categories {
		if c.Key == key {
			return c, nil
		}
	}

	return Category{}, fmt.Errorf("unknown category: %s", key)
}

// typeTags derives the free-form type tags of a record from its raw source
// tags, falling back to the category key itself.
func typeTags(tags map[string]string, category string) []string {
	var types []string

	switch category {
	case CategoryGrocery:
		switch tags["shop"] {
		case "supermarket":
			types = append(types, "supermarket", "grocery_or_supermarket")
		case "grocery":
			types = append(types, "grocery_store", "grocery_or_supermarket")
		case "convenience":
			types = append(types, "convenience_store")
		}

		if tags["amenity"] == "marketplace" {
			types = append(types, "marketplace")
		}
	case "education":
		if a := tags["amenity"]; a != "" {
			types = append(types, a)
		}
	case "medical":
		if a := tags["amenity"]; a != "" {
			types = append(types, a)
		}

		if h := tags["healthcare"]; h != "" {
			types = append(types, "healthcare_"+h)
		}
	case "religion":
		if tags["amenity"] == "place_of_worship" {
			if r := tags["religion"]; r != "" {
				types = append(types, r+"_place_of_worship")
			} else {
				types = append(types, "place_of_worship")
			}
		}
	case "pharmacy":
		types = append(types, "pharmacy")
	}

	if len(types) == 0 {
		types = []string{category}
	}

	return types
}
