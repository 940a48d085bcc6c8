// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	conf, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if conf.Provider != ProviderOverpass {
		t.Errorf("Provider = %s, want %s", conf.Provider, ProviderOverpass)
	}

	if conf.Region.Name != "Malta" {
		t.Errorf("Region.Name = %s, want Malta", conf.Region.Name)
	}

	bounds := conf.Bounds()
	if !bounds.Contains(conf.Region.CenterLat, conf.Region.CenterLng) {
		t.Errorf("region center %v outside region bounds %+v", conf.Center(), bounds)
	}

	if conf.Search.RadiusMeters != 25000 {
		t.Errorf("Search.RadiusMeters = %d, want 25000", conf.Search.RadiusMeters)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	yaml := `
provider: mock
region:
  name: Gozo
  north: 36.09
  south: 35.99
  east: 14.36
  west: 14.17
  center_lat: 36.044
  center_lng: 14.24
`
	if err := os.WriteFile(filepath.Join(dir, "placedex.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	conf, err := NewFromFile(dir, "placedex.yaml")
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}

	if conf.Provider != ProviderMock {
		t.Errorf("Provider = %s, want mock", conf.Provider)
	}

	if conf.Region.Name != "Gozo" {
		t.Errorf("Region.Name = %s, want Gozo", conf.Region.Name)
	}

	if !conf.Bounds().Contains(36.044, 14.24) {
		t.Errorf("Victoria not inside configured bounds %+v", conf.Bounds())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "bing" }},
		{"inverted latitudes", func(c *Config) { c.Region.North, c.Region.South = c.Region.South, c.Region.North }},
		{"inverted longitudes", func(c *Config) { c.Region.East, c.Region.West = c.Region.West, c.Region.East }},
		{"center latitude out of range", func(c *Config) { c.Region.CenterLat = 91 }},
		{"zero radius", func(c *Config) { c.Search.RadiusMeters = 0 }},
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conf, err := New()
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			tc.mutate(conf)

			if err := conf.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}
