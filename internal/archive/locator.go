package archive

import (
	"context"
	"log/slog"
	"sync"

	"github.com/airsight-labs/airsight/internal/observability"
)

// Locator resolves which storage root actually serves the archive. Candidates
// are probed strictly in order (explicit override first, then the fallback
// list) with one verification fetch each; the first root that answers is
// adopted for the remainder of the process. Probing is sequential on purpose:
// parallel probes would generate redundant load and make "first success"
// order-dependent.
type Locator struct {
	client     *Client
	candidates []string
	logger     *slog.Logger
	metrics    *observability.Metrics

	// resolveMu serializes probe passes so concurrent unresolved callers do
	// not each walk the candidate list; mu guards the root state.
	resolveMu sync.Mutex
	mu        sync.Mutex
	root      string
	resolved  bool
}

// NewLocator creates a Locator. defaultRoot is the configured root used until
// probing says otherwise; candidates is the full ordered probe list.
func NewLocator(client *Client, defaultRoot string, candidates []string, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{
		client:     client,
		candidates: candidates,
		logger:     logger,
		metrics:    metrics,
		root:       defaultRoot,
	}
}

// Root returns the currently effective storage root.
func (l *Locator) Root() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.root
}

// Override pins the root explicitly, bypassing any further probing until
// Resolve is forced again by a caller.
func (l *Locator) Override(root string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.root = root
	l.resolved = true
	l.metrics.RootResolved.Set(1)
}

// Resolve probes the candidate roots using date to build one sample request
// per candidate, adopting the first that responds. After a successful
// resolution subsequent calls return the remembered root without probing.
// If every candidate fails the previously configured root is kept unchanged;
// the caller will then surface the missing day itself.
func (l *Locator) Resolve(ctx context.Context, date string) string {
	l.resolveMu.Lock()
	defer l.resolveMu.Unlock()

	l.mu.Lock()
	if l.resolved {
		root := l.root
		l.mu.Unlock()
		return root
	}
	l.mu.Unlock()

	for _, cand := range l.candidates {
		if _, err := l.client.FetchDay(ctx, cand, date); err != nil {
			l.metrics.RootProbes.WithLabelValues("failure").Inc()
			l.logger.Debug("root probe failed", "root", cand, "date", date, "error", err)
			continue
		}
		l.metrics.RootProbes.WithLabelValues("success").Inc()
		l.mu.Lock()
		l.root = cand
		l.resolved = true
		l.mu.Unlock()
		l.metrics.RootResolved.Set(1)
		l.logger.Info("storage root resolved", "root", cand, "date", date)
		return cand
	}

	l.logger.Warn("no storage root responded, keeping configured root", "root", l.Root(), "date", date)
	return l.Root()
}
