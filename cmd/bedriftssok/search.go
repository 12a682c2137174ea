package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/octobees/bedriftssok/internal/entity"
)

const defaultDisplayLimit = 50

func newSearchCmd(a *app) *cobra.Command {
	var (
		filters    entity.SearchFilters
		withPhones bool
		limit      int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the business registry",
		Example: `  bedriftssok search --nace 62.010 --kommunenummer 0301 --min-ansatte 5
  bedriftssok search --nace 62.010,62.020 --with-phones --limit 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.searchAndEnrich(cmd, filters, withPhones)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			renderCompanies(a.out, result, limit)
			return nil
		},
	}
	filterFlags(cmd, &filters)
	cmd.Flags().BoolVar(&withPhones, "with-phones", false, "look up a phone number for every company without one (slow)")
	cmd.Flags().IntVar(&limit, "limit", defaultDisplayLimit, "rows to print, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
