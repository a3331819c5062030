package cli

import (
	"errors"

	"github.com/spf13/cobra"

	app "github.com/okian/featured/internal/app"
	"github.com/okian/featured/internal/domain/usage"
)

func newRunCommand(factory ServiceFactory) *cobra.Command {
	var (
		minStars int
		limit    int
		strict   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the aggregation once and store the result",
		Long: `Runs the usage query, overwrites the stored snapshot and prints the ranked
rows as JSON. A failed store write is reported but only fails the command with
--strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var o app.Overrides
			if cmd.Flags().Changed("min-stars") {
				o.MinStars = &minStars
			}
			if cmd.Flags().Changed("limit") {
				o.Limit = &limit
			}
			return withService(cmd, factory, func(svc *app.Service) error {
				res, err := svc.UpdateFeatured(cmd.Context(), o)
				if err != nil && !errors.Is(err, app.ErrPersist) {
					return err
				}
				if werr := writeJSON(cmd.OutOrStdout(), usage.Snapshot{Items: res.Rows}); werr != nil {
					return werr
				}
				if err != nil {
					if strict {
						return err
					}
					cmd.PrintErrln("warning:", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&minStars, "min-stars", usage.DefaultMinStars, "Repositories need more stars than this")
	cmd.Flags().IntVar(&limit, "limit", usage.DefaultLimit, "Maximum number of repositories kept")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when the snapshot cannot be stored")
	return cmd
}
