// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"net/http"
	"os"
	"time"

	"github.com/mgalea/placedex/utils/httputils"
)

// UserAgent identifies us to the public APIs; Overpass and Nominatim require
// a descriptive one.
const UserAgent = "placedex/1.0 (+https://github.com/mgalea/placedex)"

// newHTTPClient builds the outbound client shared by the provider variants:
// bounded timeout, identifying User-Agent, and optional wire tracing when
// PLACEDEX_HTTP_DEBUG is set.
func newHTTPClient(timeout time.Duration) *http.Client {
	var transport http.RoundTripper = &httputils.AppendRequestHeadersRoundTripper{
		Transport: http.DefaultTransport,
		Headers:   map[string]string{"User-Agent": UserAgent},
	}

	if os.Getenv("PLACEDEX_HTTP_DEBUG") != "" {
		transport = &httputils.LoggingRoundTripper{
			Transport: transport,
			Writer:    os.Stderr,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
