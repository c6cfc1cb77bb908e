package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single poll cycle and exit",
	RunE:  onceAction,
}

func onceAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = application.Logger.Sync() }()

	report := application.RunOnce(ctx)
	total := report.Totals()
	fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: fetched=%d skipped=%d delivered=%d failed=%d\n",
		report.CycleID, total.Fetched, total.Skipped, total.Delivered, total.Failed)

	return application.Shutdown(context.Background())
}
