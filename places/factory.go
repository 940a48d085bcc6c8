// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"context"
	"fmt"
	"log"

	"github.com/mgalea/placedex/config"
)

// FromConfig builds the provider variant the configuration selects.
func FromConfig(ctx context.Context, conf *config.Config) (Provider, error) {
	switch conf.Provider {
	case config.ProviderOverpass:
		log.Printf("places: using OpenStreetMap provider for %s", conf.Region.Name)

		return NewOverpassProvider(conf), nil
	case config.ProviderGoogle:
		log.Printf("places: using Google Places provider for %s", conf.Region.Name)

		return NewGoogleProvider(ctx, conf)
	case config.ProviderMock:
		log.Print("places: using mock provider (offline fixtures)")

		return NewMockProvider(conf), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", conf.Provider)
	}
}
