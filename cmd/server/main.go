// Command advisoryd runs the business advisory API and its tooling.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advisory-api/internal/config"
	"advisory-api/internal/logging"
	"advisory-api/internal/service"
	"advisory-api/internal/store"
	"advisory-api/internal/store/memstore"
	"advisory-api/internal/store/mongostore"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "advisoryd",
	Short:         "Business advisory API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, notifyCmd, advisorCmd, bookCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads config and builds the logger every command shares.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(cfg.Env, level)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// openRepo connects the configured backend. The returned func releases it.
func openRepo(ctx context.Context, cfg config.Config, log *zap.Logger) (service.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		st := mongostore.Open(cfg.MongoURI, cfg.MongoDB)
		if err := st.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		log.Info("connected to mongo", zap.String("db", cfg.MongoDB))
		return st, func() { _ = st.Close(context.Background()) }, nil
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	default:
		st := store.Open(cfg.DatabaseURL)
		if err := st.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		log.Info("connected to postgres")
		return st, st.Close, nil
	}
}
