package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/octobees/bedriftssok/internal/entity"
	"github.com/octobees/bedriftssok/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		filters    entity.SearchFilters
		withPhones bool
		formatFlag string
		output     string
	)
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Search the registry and write the result as CSV or Excel",
		Example: `  bedriftssok export --nace 62.010 --format xlsx --output oslo-it.xlsx`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			result, err := a.searchAndEnrich(cmd, filters, withPhones)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = export.Filename("", format)
			}
			if err := writeExport(path, format, result.Data); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %d companies to %s\n", len(result.Data), path)
			return nil
		},
	}
	filterFlags(cmd, &filters)
	cmd.Flags().BoolVar(&withPhones, "with-phones", false, "look up a phone number for every company without one (slow)")
	cmd.Flags().StringVar(&formatFlag, "format", string(export.FormatCSV), "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default "+export.DefaultFilename+".<format>)")
	return cmd
}

func writeExport(path string, format export.Format, companies []entity.Company) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return export.Write(f, format, companies)
}
