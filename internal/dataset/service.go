// Package dataset owns the per-day record cache and the multi-day series
// builder. It is the only component allowed to mutate the cache; everything
// downstream sees immutable record slices.
package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/airsight-labs/airsight/internal/domain"
	"github.com/airsight-labs/airsight/internal/observability"
)

// Fetcher retrieves the raw day file for a date from a storage root.
type Fetcher interface {
	FetchDay(ctx context.Context, root, date string) ([]byte, error)
}

// RootResolver tracks the effective storage root and performs fallback
// probing when a fetch fails.
type RootResolver interface {
	Root() string
	Resolve(ctx context.Context, date string) string
}

// inflight is one pending load; joiners block on done and then read records.
type inflight struct {
	done    chan struct{}
	records []domain.Record
}

// Service memoizes day loads and builds multi-day series. The cache is
// process-lifetime and append-only per date: entries are created on first
// load (empty entries included, so a genuinely missing day is not re-fetched)
// and never evicted or mutated afterward. The in-flight table guarantees that
// concurrent loads of one uncached date share a single fetch.
type Service struct {
	fetcher  Fetcher
	locator  RootResolver
	logger   *slog.Logger
	metrics  *observability.Metrics
	earliest string

	mu       sync.Mutex
	cache    map[string][]domain.Record
	inflight map[string]*inflight

	loadedOnce atomic.Bool
}

// New creates a dataset Service. earliest is the YYYYMMDD lower bound of the
// queryable date range.
func New(fetcher Fetcher, locator RootResolver, earliest string, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		fetcher:  fetcher,
		locator:  locator,
		logger:   logger,
		metrics:  metrics,
		earliest: earliest,
		cache:    make(map[string][]domain.Record),
		inflight: make(map[string]*inflight),
	}
}

// EarliestDate returns the lower bound of the queryable range.
func (s *Service) EarliestDate() string {
	return s.earliest
}

// DefaultDate is the most recent archive day: yesterday, since the archive
// publishes a day's file after the day closes.
func (s *Service) DefaultDate() string {
	return clock.Now().UTC().AddDate(0, 0, -1).Format(domain.DateLayout)
}

// CheckReadiness reports whether at least one day has been fetched
// successfully since startup.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.loadedOnce.Load() {
		return errNotReady
	}
	return nil
}

// LoadDay returns the records for one date, fetching and caching them on
// first use. It never fails: fetch and parse errors degrade to an empty
// (and cached) result with a logged diagnostic. Concurrent callers for the
// same uncached date share one fetch.
func (s *Service) LoadDay(ctx context.Context, date string) []domain.Record {
	s.mu.Lock()
	if records, ok := s.cache[date]; ok {
		s.mu.Unlock()
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return records
	}
	if fl, ok := s.inflight[date]; ok {
		s.mu.Unlock()
		s.metrics.InflightJoins.Inc()
		<-fl.done
		return fl.records
	}
	fl := &inflight{done: make(chan struct{})}
	s.inflight[date] = fl
	s.mu.Unlock()
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	records := s.fetchDay(ctx, date)

	s.mu.Lock()
	s.cache[date] = records
	delete(s.inflight, date)
	s.mu.Unlock()

	fl.records = records
	close(fl.done)
	return records
}

// fetchDay performs the fetch-parse attempt against the current root, and on
// failure triggers one fallback resolution and retries exactly once.
func (s *Service) fetchDay(ctx context.Context, date string) []domain.Record {
	start := clock.Now()

	records, err := s.fetchFrom(ctx, s.locator.Root(), date)
	if err != nil {
		s.logger.Warn("day fetch failed, re-resolving storage root", "date", date, "error", err)
		root := s.locator.Resolve(ctx, date)
		records, err = s.fetchFrom(ctx, root, date)
	}

	s.metrics.FetchDuration.Observe(clock.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("day permanently unavailable, caching empty result", "date", date, "error", err)
		s.metrics.DayFetches.WithLabelValues("error").Inc()
		return nil
	}

	s.metrics.RecordsParsed.Observe(float64(len(records)))
	if len(records) == 0 {
		s.metrics.DayFetches.WithLabelValues("empty").Inc()
	} else {
		s.metrics.DayFetches.WithLabelValues("success").Inc()
	}
	s.loadedOnce.Store(true)
	return records
}

func (s *Service) fetchFrom(ctx context.Context, root, date string) ([]domain.Record, error) {
	data, err := s.fetcher.FetchDay(ctx, root, date)
	if err != nil {
		return nil, err
	}
	return domain.DecodeDayFile(data, date)
}

// BuildSeries loads up to dayCount days walking backward from start
// (inclusive), bounded below by the earliest queryable date. Per-day loads
// run concurrently and are all joined before any result is assembled; the
// concatenation is returned sorted by date descending (most recent first),
// which raw-series consumers rely on.
func (s *Service) BuildSeries(ctx context.Context, start string, dayCount int) []domain.Record {
	dates := domain.DatesBack(start, dayCount, s.earliest)
	if len(dates) == 0 {
		return nil
	}

	perDay := make([][]domain.Record, len(dates))
	var wg sync.WaitGroup
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()
			perDay[i] = s.LoadDay(ctx, date)
		}(i, date)
	}
	wg.Wait()

	var series []domain.Record
	for _, records := range perDay {
		series = append(series, records...)
	}
	domain.SortRecordsByDateDesc(series)
	return series
}

var errNotReady = errors.New("no archive day loaded yet")
