// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rct-harvester/internal/query"
	"github.com/pdiddy/rct-harvester/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [journal...]",
	Short: "Print the PubMed query for each journal without running it",
	Long: `Query prints the exact search term the run command would send to PubMed.
With no arguments it prints one query per configured journal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadHarvestConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		journals := args
		if len(journals) == 0 {
			journals = cfg.Journals
		}
		printQueries(cmd.OutOrStdout(), cfg.Filters, journals)
		return nil
	},
}

func printQueries(w io.Writer, filters types.FilterConfig, journals []string) {
	b := query.NewBuilder(filters)
	for _, j := range journals {
		fmt.Fprintf(w, "# %s\n%s\n", j, b.Build(j))
	}
}

var journalsCmd = &cobra.Command{
	Use:   "journals",
	Short: "List the configured journals",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadHarvestConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		printJournals(cmd.OutOrStdout(), cfg.Filters, cfg.Journals)
		return nil
	},
}

func printJournals(w io.Writer, filters types.FilterConfig, journals []string) {
	b := query.NewBuilder(filters)
	for _, j := range journals {
		humans := "yes"
		if b.Exempt(j) {
			humans = "no"
		}
		fmt.Fprintf(w, "%-50s  humans filter: %s\n", j, humans)
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(journalsCmd)
}
