// Copyright 2026 The Placedex Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgalea/placedex/places"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the indexable business categories",
	Run: func(_ *cobra.Command, _ []string) {
		a, b := strings.Repeat("─", 10), strings.Repeat("─", 40)
		fmt.Println("Indexable categories:")
		fmt.Printf("╭─%-10s─┬─%-40s╮\n", a, b)
		fmt.Printf("│ %-10s │ %-40s│\n", "Key", "Name")
		fmt.Printf("├─%-10s─┼─%-40s┤\n", a, b)

		for _, cat := range places.Categories() {
			fmt.Printf("│ %-10s │ %s %-38s│\n", cat.Key, cat.Icon, cat.Name)
		}

		fmt.Printf("╰─%-10s─┴─%-40s╯\n", a, b)
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
