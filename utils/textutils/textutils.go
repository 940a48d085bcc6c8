// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides text normalization helpers for search matching.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and
// trimming spaces. Maltese place names carry diacritics (Ħamrun, Żebbuġ) that
// users rarely type, so matching happens on the folded form.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// ContainsFold reports whether substr occurs in s after both are folded.
func ContainsFold(s, substr string) bool {
	return strings.Contains(LowerASCIIFolding(s), LowerASCIIFolding(substr))
}
