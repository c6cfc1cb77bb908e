package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"freelas-watch/internal/config"
	"freelas-watch/internal/ledger"
	"freelas-watch/internal/notify"
	"freelas-watch/internal/scheduler"
	"freelas-watch/internal/services/polling"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Pool      *pgxpool.Pool
	Ledger    *ledger.Ledger
	Notifier  notify.Notifier
	Service   *polling.Service
	Scheduler *scheduler.Scheduler
	Server    *http.Server

	ownsPool bool
	closers  []func()
}

func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	go func() {
		a.Logger.Info("HTTP server listening", zap.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Fatal("http server error", zap.Error(err))
		}
	}()

	return nil
}

// RunOnce executes a single poll cycle without the scheduler or HTTP server.
func (a *App) RunOnce(ctx context.Context) polling.CycleReport {
	report, _ := a.Service.Run(ctx)
	return report
}

// Shutdown stops accepting triggers, waits for every in-flight cycle, then
// releases the ledger and notifier resources.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.Server != nil {
		err = a.Server.Shutdown(ctx)
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Service != nil {
		a.Service.Close()
	}
	a.release()
	return err
}

func (a *App) release() {
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			a.Logger.Warn("ledger close failed", zap.Error(err))
		}
	}
	for _, closeFn := range a.closers {
		closeFn()
	}
	a.closers = nil
	if a.ownsPool && a.Pool != nil {
		a.Pool.Close()
		a.ownsPool = false
	}
}
