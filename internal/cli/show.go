package cli

import (
	"github.com/spf13/cobra"

	app "github.com/okian/featured/internal/app"
)

func newShowCommand(factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, factory, func(svc *app.Service) error {
				s, err := svc.Featured(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), s)
			})
		},
	}
}
