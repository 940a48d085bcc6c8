// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "placedex",
	Short: "points-of-interest indexer for a bounded region",
	Long: `
placedex fetches grocery stores and categorized businesses from a place-data
provider (OpenStreetMap, Google Places, or offline fixtures), keeps them in a
local DuckDB database, and serves them over an HTTP API.
`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Optional; secrets like GOOGLE_MAPS_API_KEY can live in .env.
		_ = godotenv.Load()
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
