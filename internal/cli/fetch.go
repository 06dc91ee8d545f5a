package cli

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/marine-risk-pipeline/internal/fetch"
	"github.com/couchcryptid/marine-risk-pipeline/internal/normalize"
)

func newFetchAISCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-ais",
		Short: "Download daily vessel position files for the configured date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, metrics, err := bootstrap()
			if err != nil {
				return err
			}
			r, err := cfg.AISRange()
			if err != nil {
				return err
			}

			fetcher := fetch.New(cfg.HTTPTimeout, cfg.FetchDelay, clockwork.NewRealClock(), logger, metrics)
			units := fetch.AISUnits(r, cfg.AISBaseURL, cfg.AISDir())

			totals, err := fetcher.FetchAll(cmd.Context(), units)
			if err != nil {
				return err
			}
			logger.Info("ais fetch complete",
				"downloaded", totals.Downloaded,
				"skipped", totals.Skipped,
				"failed", totals.Failed)
			if totals.Failed > 0 {
				return fmt.Errorf("%d of %d files failed to download", totals.Failed, len(units))
			}
			return nil
		},
	}
}

func newFetchMPACommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-mpa",
		Short: "Download the protected-area inventory and write a filtered snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, metrics, err := bootstrap()
			if err != nil {
				return err
			}

			fetcher := fetch.New(cfg.HTTPTimeout, cfg.FetchDelay, clockwork.NewRealClock(), logger, metrics)
			n := normalize.New(cfg.MPAURL, cfg.MPAArchiveFile(), cfg.MPASnapshotFile(), cfg.Region, fetcher, logger, metrics)
			return n.Normalize(cmd.Context())
		},
	}
}
