// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mgalea/placedex/config"
	"github.com/mgalea/placedex/places"
)

func categoryArgs(_ *cobra.Command, args []string) error {
	for _, arg := range args {
		if _, err := places.LookupCategory(arg); err != nil {
			return err
		}
	}

	return nil
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [category...]",
	Short: "Fetch places from the provider and reconcile them locally",
	Long: `
Fetches every category (or only the named ones) from the configured provider
and merges the results into the local database. Grocery results also feed the
dedicated stores dataset.
`,
	Args: categoryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		var categories []places.Category

		if len(args) == 0 {
			categories = places.Categories()
		} else {
			for _, arg := range args {
				cat, err := places.LookupCategory(arg)
				if err != nil {
					return err
				}

				categories = append(categories, cat)
			}
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(categories),
				progressbar.OptionSetDescription("Refreshing "+conf.Region.Name),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		for _, cat := range categories {
			records, err := provider.Search(cmd.Context(), cat.Key)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", cat.Key, err)
			}

			summary, err := businessRepo.Reconcile(records)
			if err != nil {
				return fmt.Errorf("reconciling %s: %w", cat.Key, err)
			}

			log.Printf("%s %s: %d fetched, %d created, %d updated, %d skipped",
				cat.Icon, cat.Key, len(records), summary.Created, summary.Updated, summary.Skipped)

			if cat.Key == places.CategoryGrocery {
				storeSummary, err := storeRepo.Reconcile(records)
				if err != nil {
					return fmt.Errorf("reconciling stores: %w", err)
				}

				log.Printf("stores: %d created, %d updated, %d skipped",
					storeSummary.Created, storeSummary.Updated, storeSummary.Skipped)
			}

			if bar != nil {
				_ = bar.Add(1)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
