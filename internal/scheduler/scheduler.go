package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"freelas-watch/internal/services/polling"
)

// Runner executes one poll cycle and reports whether it actually ran.
type Runner interface {
	Run(ctx context.Context) (polling.CycleReport, bool)
}

type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	logger     *zap.Logger
	schedule   cron.Schedule
	runOnStart bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Options struct {
	Interval time.Duration
	// Spec, when set, is a standard five-field cron expression and takes
	// precedence over Interval.
	Spec       string
	RunOnStart bool
}

func New(opts Options, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	schedule, err := buildSchedule(opts)
	if err != nil {
		return nil, err
	}

	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		runner:     runner,
		logger:     logger,
		schedule:   schedule,
		runOnStart: opts.RunOnStart,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func buildSchedule(opts Options) (cron.Schedule, error) {
	if opts.Spec != "" {
		schedule, err := cron.ParseStandard(opts.Spec)
		if err != nil {
			return nil, fmt.Errorf("invalid cron spec %q: %w", opts.Spec, err)
		}
		return schedule, nil
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", opts.Interval)
	}
	return cron.Every(opts.Interval), nil
}

func (s *Scheduler) Start() error {
	s.cron.Schedule(s.schedule, cron.FuncJob(s.tick))
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Time("next_run", s.Next()))

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick()
		}()
	}
	return nil
}

// tick runs the cycle synchronously so SkipIfStillRunning drops overlapping ticks.
func (s *Scheduler) tick() {
	s.logger.Info("scheduled poll triggered")
	if _, ok := s.runner.Run(s.ctx); !ok {
		s.logger.Warn("previous poll cycle still running; tick dropped")
	}
}

func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop prevents new ticks and waits for the running cycle. The cycle stops
// after the keyword in flight.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}
