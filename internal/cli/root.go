// Package cli defines the marinerisk command tree. Each subcommand loads
// configuration, builds the components it needs, and runs one pipeline stage
// so stages can be scheduled and retried independently.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/marine-risk-pipeline/internal/config"
	"github.com/couchcryptid/marine-risk-pipeline/internal/observability"
)

var configPath string

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "marinerisk",
		Short:         "Ingest vessel traffic, cetacean sightings, and protected-area data into a spatial store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(
		newFetchAISCommand(),
		newFetchMPACommand(),
		newSetupCommand(),
		newLoadCommand(),
		newViewsCommand(),
		newMirrorCommand(),
	)
	return root
}

// bootstrap loads config and the shared observability pieces for a command run.
func bootstrap() (*config.Config, *slog.Logger, *observability.Metrics, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := observability.NewLogger(cfg)
	return cfg, logger, observability.NewMetrics(), nil
}
