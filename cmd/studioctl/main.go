// Package main provides studioctl, an admin CLI that works directly against the logstudio database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags override the matching environment configuration when set.
type globalFlags struct {
	dbPath   string
	dbDriver string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "studioctl",
		Short:         "Administer the logstudio content database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Database file (defaults to DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&flags.dbDriver, "driver", "", "SQLite driver: sqlite3 or sqlite (defaults to DB_DRIVER)")

	rootCmd.AddCommand(
		newMigrateCmd(flags),
		newSeedCmd(flags),
		newEntriesCmd(flags),
	)

	return rootCmd
}
