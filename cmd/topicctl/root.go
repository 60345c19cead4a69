package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"newsbox-topics/internal/bootstrap"
	"newsbox-topics/internal/config"
	"newsbox-topics/pkg/database"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "topicctl",
	Short:         "Topic engine maintenance tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log SQL statements")
	rootCmd.AddCommand(rebuildCmd, sweepCmd, watchCmd)
}

// withContainer opens the database, builds the container and closes it after fn returns.
func withContainer(fn func(ctx context.Context, cfg *config.Config, c *bootstrap.Container) error) error {
	cfg := config.Load()
	db, err := database.NewGormDB(database.GormConfig{DSN: cfg.Database.Connection, Verbose: verbose})
	if err != nil {
		return err
	}
	container, err := bootstrap.NewContainer(db, cfg)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(context.Background(), cfg, container)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
