package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/config"
	"github.com/octobees/bedriftssok/internal/discovery"
	"github.com/octobees/bedriftssok/internal/entity"
	"github.com/octobees/bedriftssok/internal/logger"
	"github.com/octobees/bedriftssok/internal/registry"
	"github.com/octobees/bedriftssok/internal/service"
)

// app holds what every subcommand needs once flags and environment are read.
type app struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
	err io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:           "bedriftssok",
		Short:         "Search Enhetsregisteret and find company phone numbers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			zl, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, zl
			a.out, a.err = cmd.OutOrStdout(), cmd.ErrOrStderr()
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(
		newSearchCmd(a),
		newPhoneCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) pipeline() *discovery.Pipeline {
	return discovery.New(a.cfg.Discovery, discovery.WithLogger(a.log.Named("discovery")))
}

func (a *app) companies() *service.CompaniesService {
	client := registry.New(a.cfg.Registry, registry.WithLogger(a.log.Named("registry")))
	return service.NewCompaniesService(client, a.pipeline(), a.log)
}

// filterFlags binds the registry filters shared by search and export.
func filterFlags(cmd *cobra.Command, f *entity.SearchFilters) {
	cmd.Flags().StringSliceVar(&f.NaceCodes, "nace", nil, "NACE code(s), e.g. 62.010 (repeat or comma separate)")
	cmd.Flags().StringVar(&f.Postnummer, "postnummer", "", "postal code")
	cmd.Flags().StringVar(&f.Kommunenummer, "kommunenummer", "", "municipality number")
	cmd.Flags().StringVar(&f.EnhetType, "type", entity.EnhetTypeMain, "hovedenhet or underenhet")
	cmd.Flags().IntVar(&f.MinAnsatte, "min-ansatte", 0, "minimum number of employees")
}

func validateFilters(f entity.SearchFilters) error {
	switch f.EnhetType {
	case "", entity.EnhetTypeMain, entity.EnhetTypeSub:
	default:
		return fmt.Errorf("--type must be %s or %s", entity.EnhetTypeMain, entity.EnhetTypeSub)
	}
	if f.MinAnsatte < 0 {
		return fmt.Errorf("--min-ansatte must not be negative")
	}
	return nil
}

// searchAndEnrich runs the registry search and, when withPhones is set, phone
// discovery for every hit, reporting progress on a.err.
func (a *app) searchAndEnrich(cmd *cobra.Command, filters entity.SearchFilters, withPhones bool) (entity.SearchResult, error) {
	if err := validateFilters(filters); err != nil {
		return entity.SearchResult{}, err
	}
	svc := a.companies()
	result, err := svc.Search(cmd.Context(), filters)
	if err != nil {
		return entity.SearchResult{}, err
	}
	if withPhones && len(result.Data) > 0 {
		found, err := svc.EnrichPhones(cmd.Context(), result.Data, func(done, total int, c entity.Company) {
			fmt.Fprintf(a.err, "\r[%d/%d] %s", done, total, c.Navn)
		})
		fmt.Fprintln(a.err)
		if err != nil {
			return result, err
		}
		fmt.Fprintf(a.err, "Found phone numbers for %d of %d companies\n", found, len(result.Data))
	}
	return result, nil
}
