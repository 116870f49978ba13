package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advisory-api/internal/config"
	"advisory-api/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded postgres migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.StoreDriver != config.DriverPostgres {
			return errors.New("migrate only applies to the postgres driver")
		}
		st := store.Open(cfg.DatabaseURL)
		defer st.Close()
		applied, err := st.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Strings("files", applied))
		for _, f := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}
