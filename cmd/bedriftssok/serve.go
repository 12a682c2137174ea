package main

import (
	"github.com/spf13/cobra"

	"github.com/octobees/bedriftssok/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return server.Run(cmd.Context(), server.New(a.cfg, a.log), a.cfg.Port, a.log)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port; overrides PORT")
	return cmd
}
