// Package cli contains the featuredctl commands, built using the Cobra library.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	app "github.com/okian/featured/internal/app"
	"github.com/okian/featured/internal/config"
	"github.com/okian/featured/pkg/logger"
)

// ServiceFactory builds the service a command runs against.
type ServiceFactory func(ctx context.Context) (*app.Service, error)

// FromEnvironment loads configuration the same way the server does and wires
// the configured backends.
func FromEnvironment(ctx context.Context) (*app.Service, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return app.FromConfig(ctx, cfg, logger.Named("featuredctl"))
}

// NewRootCommand returns the featuredctl command tree.
func NewRootCommand(factory ServiceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "featuredctl",
		Short: "Recompute or inspect the featured repositories snapshot.",
		Long: `featuredctl runs the featured repositories aggregation once, or prints the
snapshot currently stored for the configured environment. It reads the same
FEATURED_* configuration as the HTTP server.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand(factory), newShowCommand(factory))
	return root
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func withService(cmd *cobra.Command, factory ServiceFactory, fn func(*app.Service) error) (err error) {
	svc, err := factory(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(svc)
}
