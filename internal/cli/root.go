// Package cli provides the command-line interface for freelas-watch.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"freelas-watch/internal/app"
	"freelas-watch/internal/config"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "freelas-watch",
	Short: "Watch freelance marketplaces for new postings",
	Long:  "freelas-watch polls freelance job boards for a set of keywords and notifies a channel about every posting it has not announced before.",
	// With no subcommand the service runs.
	RunE:          serveAction,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("freelas-watch %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd, serveCmd, onceCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	application, err := app.NewBuilder(&cfg).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("app build error: %w", err)
	}
	return application, nil
}
