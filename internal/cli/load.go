package cli

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/marine-risk-pipeline/internal/adapter/duckdb"
	"github.com/couchcryptid/marine-risk-pipeline/internal/adapter/s3"
	"github.com/couchcryptid/marine-risk-pipeline/internal/store"
)

func newSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create tables, indexes, and the spatial extension",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, metrics, err := bootstrap()
			if err != nil {
				return err
			}
			st, err := store.Open(cmd.Context(), cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Provision(cmd.Context())
		},
	}
}

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load all local datasets into the spatial store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, metrics, err := bootstrap()
			if err != nil {
				return err
			}
			st, err := store.Open(cmd.Context(), cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer st.Close()

			counts, err := st.LoadAll(cmd.Context())
			for _, tc := range counts {
				logger.Info("table row count", "table", tc.Table, "rows", tc.Rows)
			}
			return err
		},
	}
}

func newViewsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "Define SQL views over the local parquet files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, _, err := bootstrap()
			if err != nil {
				return err
			}
			return duckdb.New(cfg, logger).Setup(cmd.Context())
		},
	}
}

func newMirrorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Mirror the local data directory into S3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, _, err := bootstrap()
			if err != nil {
				return err
			}
			m, err := s3.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			_, err = m.Run(cmd.Context())
			return err
		},
	}
}
