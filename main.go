// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/mgalea/placedex/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
