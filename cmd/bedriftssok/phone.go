package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/octobees/bedriftssok/internal/discovery"
)

func newPhoneCmd(a *app) *cobra.Command {
	var orgNumber, website string
	cmd := &cobra.Command{
		Use:     "phone <company name>",
		Short:   "Find a phone number for one company",
		Example: `  bedriftssok phone "Acme AS" --org 923456789 --website acme.no`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			result := a.pipeline().Discover(cmd.Context(), discovery.Request{
				CompanyName: name,
				OrgNumber:   orgNumber,
				Website:     website,
			})
			renderPhone(a.out, name, orgNumber, result.PhoneNumber, result.Source, result.Website, result.WebsiteSource)
			return cmd.Context().Err()
		},
	}
	cmd.Flags().StringVar(&orgNumber, "org", "", "organization number")
	cmd.Flags().StringVar(&website, "website", "", "known website, skips domain guessing")
	return cmd
}
