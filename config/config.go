// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads the deployment configuration. The reference deployment
// indexes Malta, but every geographic knob is overridable so the indexer can
// be pointed at any bounded region.
package config

import (
	"fmt"

	"github.com/kkyr/fig"

	"github.com/mgalea/placedex/spatial"
)

const envPrefix = "PLACEDEX"

// Provider variants selectable via the `provider` key.
const (
	ProviderOverpass = "overpass"
	ProviderGoogle   = "google"
	ProviderMock     = "mock"
)

// Config represents the application's configuration structure.
type Config struct {
	// Allowed values: overpass, google, mock
	Provider string `fig:"provider" default:"overpass"`

	Listen string `fig:"listen" default:"localhost:8080"`
	DBPath string `fig:"db_path" default:"data"`

	Region struct {
		Name        string  `fig:"name" default:"Malta"`
		CountryCode string  `fig:"country_code" default:"mt"`
		North       float64 `fig:"north" default:"35.95"`
		South       float64 `fig:"south" default:"35.8"`
		East        float64 `fig:"east" default:"14.58"`
		West        float64 `fig:"west" default:"14.18"`
		CenterLat   float64 `fig:"center_lat" default:"35.8989"`
		CenterLng   float64 `fig:"center_lng" default:"14.5146"`
	} `fig:"region"`

	Search struct {
		// RadiusMeters is the default fetch radius; covers all of Malta.
		RadiusMeters int `fig:"radius_meters" default:"25000"`
		MaxResults   int `fig:"max_results" default:"500"`
	} `fig:"search"`

	Overpass struct {
		URL          string `fig:"url" default:"https://overpass-api.de/api/interpreter"`
		NominatimURL string `fig:"nominatim_url" default:"https://nominatim.openstreetmap.org"`
	} `fig:"overpass"`

	Google struct {
		APIKey string `fig:"api_key"`
	} `fig:"google"`
}

// New loads the configuration from placedex.yaml in the working directory if
// present, then applies PLACEDEX_* environment overrides.
func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.File("placedex.yaml"), fig.AllowNoFile(), fig.UseEnv(envPrefix)); err != nil {
		return conf, fmt.Errorf("loading config: %w", err)
	}

	return conf, conf.Validate()
}

// NewFromFile loads the configuration from an explicit directory and file.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(envPrefix)); err != nil {
		return conf, fmt.Errorf("loading config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate checks value ranges and cross-field consistency.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOverpass, ProviderGoogle, ProviderMock:
	default:
		return fmt.Errorf("invalid provider: %s", c.Provider)
	}

	if c.Region.North <= c.Region.South {
		return fmt.Errorf("region north (%f) must be greater than south (%f)", c.Region.North, c.Region.South)
	}

	if c.Region.East <= c.Region.West {
		return fmt.Errorf("region east (%f) must be greater than west (%f)", c.Region.East, c.Region.West)
	}

	if c.Region.CenterLat < -90 || c.Region.CenterLat > 90 {
		return fmt.Errorf("invalid center latitude: %f", c.Region.CenterLat)
	}

	if c.Region.CenterLng < -180 || c.Region.CenterLng > 180 {
		return fmt.Errorf("invalid center longitude: %f", c.Region.CenterLng)
	}

	if c.Search.RadiusMeters <= 0 {
		return fmt.Errorf("invalid search radius: %d", c.Search.RadiusMeters)
	}

	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("invalid max results: %d", c.Search.MaxResults)
	}

	return nil
}

// Bounds returns the configured region rectangle.
func (c *Config) Bounds() spatial.Bounds {
	return spatial.Bounds{
		North: c.Region.North,
		South: c.Region.South,
		East:  c.Region.East,
		West:  c.Region.West,
	}
}

// Center returns the configured region center.
func (c *Config) Center() spatial.Point {
	return spatial.Point{Lat: c.Region.CenterLat, Lng: c.Region.CenterLng}
}
