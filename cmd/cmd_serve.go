// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/mgalea/placedex/config"
	"github.com/mgalea/placedex/directory"
	"github.com/mgalea/placedex/places"
)

func openDatabase(conf *config.Config) (*sql.DB, directory.StoreRepository, directory.BusinessRepository, error) {
	if err := os.MkdirAll(conf.DBPath, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(conf.DBPath, "placedex.duckdb"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	storeRepo := directory.NewStoreRepository(db)
	if err := storeRepo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, nil, fmt.Errorf("creating stores schema: %w", err)
	}

	businessRepo := directory.NewBusinessRepository(db)
	if err := businessRepo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, nil, fmt.Errorf("creating businesses schema: %w", err)
	}

	return db, storeRepo, businessRepo, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := config.New()
		if err != nil {
			return err
		}

		db, storeRepo, businessRepo, err := openDatabase(conf)
		if err != nil {
			return err
		}
		defer db.Close()

		provider, err := places.FromConfig(cmd.Context(), conf)
		if err != nil {
			return err
		}

		log.Printf("serving %s directory on %s", conf.Region.Name, conf.Listen)

		return directory.NewServer(conf, storeRepo, businessRepo, provider).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
