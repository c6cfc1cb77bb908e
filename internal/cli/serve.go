package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll on schedule and serve the HTTP API",
	RunE:  serveAction,
}

func serveAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = application.Logger.Sync() }()

	if err := application.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	application.Logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error("server shutdown error", zap.Error(err))
		return err
	}
	return nil
}
