// Package ledger records which posting urls have already been notified.
//
// Membership lives in memory. A Store, when configured, receives every new
// url and is read back once at startup so the set survives restarts.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Store persists notified urls. Load must reconstruct exactly the set of
// urls previously appended, in any order.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Append(ctx context.Context, url string) error
	Close() error
}

type Ledger struct {
	mu     sync.RWMutex
	seen   map[string]struct{}
	store  Store
	logger *zap.Logger
}

// New returns an empty ledger. store may be nil for a purely in-memory ledger.
func New(store Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		seen:   make(map[string]struct{}),
		store:  store,
		logger: logger,
	}
}

// Load merges the store's urls into the in-memory set.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	urls, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	l.mu.Lock()
	for _, u := range urls {
		if u != "" {
			l.seen[u] = struct{}{}
		}
	}
	size := len(l.seen)
	l.mu.Unlock()

	l.logger.Info("ledger loaded", zap.Int("urls", size))
	return nil
}

func (l *Ledger) HasSeen(url string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[url]
	return ok
}

// MarkSeen records url. Repeated calls are no-ops. A store failure is logged;
// the url stays seen for the rest of the process.
func (l *Ledger) MarkSeen(ctx context.Context, url string) {
	l.mu.Lock()
	if _, ok := l.seen[url]; ok {
		l.mu.Unlock()
		return
	}
	l.seen[url] = struct{}{}
	l.mu.Unlock()

	if l.store == nil {
		return
	}
	if err := l.store.Append(ctx, url); err != nil {
		l.logger.Error("ledger store append failed", zap.String("url", url), zap.Error(err))
	}
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen)
}

func (l *Ledger) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}
