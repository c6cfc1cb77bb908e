package polling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"freelas-watch/internal/model"
	"freelas-watch/internal/notify"
)

const defaultFetchConcurrency = 4

type Service struct {
	ledger   Ledger
	notifier notify.Notifier
	sources  []Source
	keywords []string
	logger   *zap.Logger

	fetchConcurrency int

	mu      sync.Mutex
	running bool
	closed  bool
	last    *CycleReport

	// Background cycles started by Trigger run under baseCtx and are
	// tracked by bg so Close can wait for them.
	baseCtx context.Context
	cancel  context.CancelFunc
	bg      sync.WaitGroup
}

type Option func(*Service)

// WithFetchConcurrency bounds how many sources are queried at once for a keyword.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

func NewService(ledger Ledger, notifier notify.Notifier, sources []Source, keywords []string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		ledger:           ledger,
		notifier:         notifier,
		sources:          sources,
		keywords:         keywords,
		logger:           logger,
		fetchConcurrency: defaultFetchConcurrency,
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one poll cycle. If a cycle is already in progress the call
// returns immediately with ok=false; it is not queued.
func (s *Service) Run(ctx context.Context) (CycleReport, bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("poll cycle already running; skipping")
		return CycleReport{}, false
	}
	s.running = true
	s.mu.Unlock()

	return s.execute(ctx), true
}

// execute runs a cycle the caller has already claimed by setting running.
func (s *Service) execute(ctx context.Context) (report CycleReport) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.last = &report
		s.mu.Unlock()
	}()
	return s.cycle(ctx)
}

// Trigger starts a cycle in the background. It returns false when a cycle is
// already running or the service is closed.
func (s *Service) Trigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.closed {
		return false
	}
	s.running = true
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.execute(s.baseCtx)
	}()
	return true
}

// Close rejects further triggers, cancels background cycles and waits for
// them. A cancelled cycle still finishes the keyword in flight.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.bg.Wait()
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) LastReport() (CycleReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return CycleReport{}, false
	}
	return *s.last, true
}

func (s *Service) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

func (s *Service) SourceNames() []string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, src.Name())
	}
	return names
}

func (s *Service) cycle(ctx context.Context) CycleReport {
	report := CycleReport{
		CycleID: uuid.NewString(),
		Started: time.Now(),
	}
	log := s.logger.With(zap.String("cycle_id", report.CycleID))
	log.Info("poll cycle started", zap.Int("keywords", len(s.keywords)), zap.Int("sources", len(s.sources)))

	for _, keyword := range s.keywords {
		if ctx.Err() != nil {
			log.Warn("poll cycle interrupted", zap.Error(ctx.Err()))
			report.Aborted = true
			break
		}
		// A started keyword finishes its notify/commit loop even during shutdown.
		kr := s.processKeyword(context.WithoutCancel(ctx), log, keyword)
		report.Keywords = append(report.Keywords, kr)

		log.Info("keyword summary",
			zap.String("keyword", keyword),
			zap.Int("fetched", kr.Fetched),
			zap.Int("skipped", kr.Skipped),
			zap.Int("delivered", kr.Delivered),
			zap.Int("failed", kr.Failed),
		)
	}

	report.Finished = time.Now()
	totals := report.Totals()
	log.Info("poll cycle finished",
		zap.Duration("took", report.Finished.Sub(report.Started)),
		zap.Int("delivered", totals.Delivered),
		zap.Int("failed", totals.Failed),
		zap.Int("ledger_size", s.ledger.Len()),
	)
	return report
}

func (s *Service) processKeyword(ctx context.Context, log *zap.Logger, keyword string) KeywordReport {
	kr := KeywordReport{Keyword: keyword}

	for _, postings := range s.fetchAll(ctx, log, keyword) {
		kr.Fetched += len(postings)
		for _, posting := range postings {
			if s.ledger.HasSeen(posting.URL) {
				kr.Skipped++
				continue
			}

			outcome := s.notifier.Notify(ctx, posting)
			if outcome != notify.Delivered {
				// Left unmarked so the next cycle retries it.
				kr.Failed++
				log.Warn("notification failed",
					zap.String("source", posting.Source),
					zap.String("url", posting.URL),
				)
				continue
			}
			s.ledger.MarkSeen(ctx, posting.URL)
			kr.Delivered++
		}
	}
	return kr
}

// fetchAll queries every source for keyword concurrently. The result slice is
// indexed like s.sources so postings are consumed in configured source order.
func (s *Service) fetchAll(ctx context.Context, log *zap.Logger, keyword string) [][]model.Posting {
	results := make([][]model.Posting, len(s.sources))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.fetchConcurrency)
	for i, src := range s.sources {
		group.Go(func() error {
			results[i] = s.safeFetch(gctx, log, src, keyword)
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (s *Service) safeFetch(ctx context.Context, log *zap.Logger, src Source, keyword string) (postings []model.Posting) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("source panicked",
				zap.String("source", src.Name()),
				zap.String("keyword", keyword),
				zap.Error(fmt.Errorf("%v", r)),
			)
			postings = nil
		}
	}()

	for _, p := range src.Fetch(ctx, keyword) {
		if !p.Valid() {
			continue
		}
		postings = append(postings, p)
	}
	return postings
}
