package service

import (
	"context"
	"sync"
	"time"

	"golang-market-calendar/internal/calendar/config"
	"golang-market-calendar/internal/calendar/metrics"
	"golang-market-calendar/internal/calendar/repository"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/common"
	"golang-market-calendar/pkg/logger"
	"golang-market-calendar/pkg/telegram"
	"golang-market-calendar/pkg/utils"

	"github.com/robfig/cron/v3"
)

// RefreshService owns the snapshot and drives refresh cycles. Exactly one
// cycle runs at a time: the interval timer, manual triggers and watchlist
// saves all funnel into RunCycle.
type RefreshService interface {
	Start(ctx context.Context)
	RunCycle(ctx context.Context, manual bool) (*entity.Snapshot, error)
	TriggerAsync()
}

type refreshService struct {
	cfg           *config.Config
	log           *logger.Logger
	emRepo        repository.EastmoneyRepository
	watchlistRepo repository.WatchlistRepository
	snapshotRepo  repository.SnapshotRepository
	store         *SnapshotStore
	normalizer    *Normalizer
	forecaster    *Forecaster
	notifier      telegram.Notifier // nil when notifications are disabled
	cycleMu       sync.Mutex
	now           func() time.Time
}

// NewRefreshService creates the refresh orchestrator.
func NewRefreshService(
	cfg *config.Config,
	log *logger.Logger,
	emRepo repository.EastmoneyRepository,
	watchlistRepo repository.WatchlistRepository,
	snapshotRepo repository.SnapshotRepository,
	store *SnapshotStore,
	normalizer *Normalizer,
	forecaster *Forecaster,
	notifier telegram.Notifier,
) RefreshService {
	return &refreshService{
		cfg:           cfg,
		log:           log,
		emRepo:        emRepo,
		watchlistRepo: watchlistRepo,
		snapshotRepo:  snapshotRepo,
		store:         store,
		normalizer:    normalizer,
		forecaster:    forecaster,
		notifier:      notifier,
		now:           time.Now,
	}
}

// Start reloads the persisted snapshot, runs a cycle when the cache is
// missing or stale, then refreshes on the configured schedule until the
// context is canceled.
func (s *refreshService) Start(ctx context.Context) {
	s.reloadPersisted()
	if s.needsBootstrapRefresh() {
		if _, err := s.RunCycle(ctx, false); err != nil {
			s.log.Error("Bootstrap refresh failed", logger.ErrorField(err))
		}
	}

	schedule := s.cfg.Refresh.Schedule
	if schedule == "" {
		schedule = "@every 6h"
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.RunCycle(context.Background(), false); err != nil {
			s.log.Warn("Scheduled refresh skipped", logger.ErrorField(err))
		}
	}); err != nil {
		s.log.Fatal("Invalid refresh schedule", logger.StringField("schedule", schedule), logger.ErrorField(err))
	}
	c.Start()

	<-ctx.Done()
	s.log.Info("Refresh service stopping")
	<-c.Stop().Done()
}

// TriggerAsync kicks off a cycle without blocking the caller; a concurrent
// in-flight cycle makes it a no-op.
func (s *refreshService) TriggerAsync() {
	utils.GoSafe(func() {
		if _, err := s.RunCycle(context.Background(), true); err != nil {
			s.log.Warn("Triggered refresh skipped", logger.ErrorField(err))
		}
	})
}

// sourceResult is one source's contribution to a cycle. Each source writes
// only its own slot, so the fan-out needs no extra locking.
type sourceResult struct {
	events    []entity.Event
	okCount   int
	errCount  int
	lastError string
}

func (r *sourceResult) recordOK() { r.okCount++ }

func (r *sourceResult) recordError(err error) {
	r.errCount++
	r.lastError = err.Error()
}

// succeeded reports whether the source contributed fresh data: at least one
// fetch worked, or none were needed.
func (r *sourceResult) succeeded() bool {
	return r.okCount > 0 || r.errCount == 0
}

// RunCycle executes one refresh cycle: fetch every source, normalize, merge
// per source and swap the snapshot. Returns ErrRefreshBusy when a cycle is
// already in flight.
func (s *refreshService) RunCycle(ctx context.Context, manual bool) (*entity.Snapshot, error) {
	if !s.cycleMu.TryLock() {
		metrics.RefreshCycles.WithLabelValues("busy").Inc()
		return nil, ErrRefreshBusy
	}
	defer s.cycleMu.Unlock()

	started := s.now()
	s.log.Info("Refresh cycle starting", logger.Field("manual", manual))

	entries, err := s.watchlistRepo.List()
	if err != nil {
		s.log.Error("Failed to load watchlist, refreshing macro sources only", logger.ErrorField(err))
		entries = nil
	}

	results := map[string]*sourceResult{
		common.SourceAnnouncements:      {},
		common.SourceDisclosureCalendar: {},
		common.SourceMacroFastNews:      {},
		common.SourceMacroForecast:      {},
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		s.fetchAnnouncements(ctx, entries, results[common.SourceAnnouncements])
	}()
	go func() {
		defer wg.Done()
		s.fetchDisclosureCalendar(ctx, entries, results[common.SourceDisclosureCalendar])
	}()
	go func() {
		defer wg.Done()
		s.fetchMacroFastNews(ctx, results[common.SourceMacroFastNews])
	}()

	// The forecast source is computed locally and cannot fail; it does not
	// count toward cycle success.
	forecastResult := results[common.SourceMacroForecast]
	forecastResult.events = s.forecaster.Generate(s.forecastMonths())
	forecastResult.recordOK()

	wg.Wait()

	prev := s.store.Get()
	bySource := make(map[string][]entity.Event, len(results))
	stats := make(map[string]entity.SourceStat, len(results))
	anyFetchSucceeded := false

	for _, source := range common.Sources {
		result := results[source]
		if result.succeeded() {
			bySource[source] = result.events
			if source != common.SourceMacroForecast {
				anyFetchSucceeded = true
			}
		} else {
			// Stale-but-present beats a blanked calendar on a
			// transient failure.
			bySource[source] = prev.BySource[source]
		}
		stats[source] = entity.SourceStat{
			OK:        result.okCount,
			Error:     result.errCount,
			LastError: result.lastError,
		}
		metrics.SourceFetches.WithLabelValues(source, "ok").Add(float64(result.okCount))
		metrics.SourceFetches.WithLabelValues(source, "error").Add(float64(result.errCount))
	}

	// updatedAt advances to the cycle's completion time only when at least
	// one upstream source succeeded.
	updatedAt := prev.UpdatedAt
	outcome := "partial_failure"
	if anyFetchSucceeded {
		updatedAt = s.now().UTC().Truncate(time.Second)
		outcome = "success"
	}

	snapshot := entity.NewSnapshot(updatedAt, bySource, stats)
	s.store.Set(snapshot)

	metrics.RefreshCycles.WithLabelValues(outcome).Inc()
	metrics.CachedEvents.Set(float64(len(snapshot.Events)))
	if anyFetchSucceeded {
		metrics.LastRefreshTimestamp.Set(float64(updatedAt.Unix()))
		if err := s.snapshotRepo.Save(snapshot); err != nil {
			s.log.Error("Failed to persist event cache", logger.ErrorField(err))
		}
	}

	s.log.Info("Refresh cycle finished",
		logger.StringField("outcome", outcome),
		logger.IntField("event_count", len(snapshot.Events)),
		logger.Field("duration", s.now().Sub(started).Round(time.Millisecond).String()),
	)

	s.notify(snapshot, outcome)

	return snapshot, nil
}

func (s *refreshService) fetchAnnouncements(ctx context.Context, entries []entity.WatchlistEntry, result *sourceResult) {
	maxConcurrent := s.cfg.Refresh.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	semaphore := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, entry := range entries {
		entry := entry
		wg.Add(1)
		go func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			items, err := s.emRepo.GetAnnouncements(ctx, entry)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Error("Announcement fetch failed",
					logger.StringField("stock_code", entry.Code), logger.ErrorField(err))
				result.recordError(err)
				return
			}
			result.recordOK()
			result.events = append(result.events, s.normalizer.NormalizeAnnouncements(entry, items)...)
		}()
	}

	wg.Wait()
}

func (s *refreshService) fetchDisclosureCalendar(ctx context.Context, entries []entity.WatchlistEntry, result *sourceResult) {
	for _, entry := range entries {
		if !entry.IsAShare() {
			continue
		}
		rows, err := s.emRepo.GetDisclosureCalendar(ctx, entry)
		if err != nil {
			s.log.Error("Disclosure calendar fetch failed",
				logger.StringField("stock_code", entry.Code), logger.ErrorField(err))
			result.recordError(err)
			continue
		}
		result.recordOK()
		result.events = append(result.events, s.normalizer.NormalizeDisclosureCalendar(entry, rows)...)
	}
}

func (s *refreshService) fetchMacroFastNews(ctx context.Context, result *sourceResult) {
	maxPages := s.cfg.Refresh.MacroMaxPages
	if maxPages <= 0 {
		maxPages = 12
	}
	maxEvents := s.cfg.Refresh.MacroMaxEvents
	if maxEvents <= 0 {
		maxEvents = 80
	}
	oldestAllowed := utils.DateOnly(s.now()).AddDate(0, 0, -macroLookbackDays)

	items, err := s.emRepo.GetFastNews(ctx, maxPages, oldestAllowed)
	if err != nil {
		s.log.Error("Macro fast-news fetch failed", logger.ErrorField(err))
		result.recordError(err)
		return
	}
	result.recordOK()
	result.events = s.normalizer.NormalizeFastNews(items, maxEvents)
}

func (s *refreshService) forecastMonths() int {
	if s.cfg.Refresh.ForecastMonths > 0 {
		return s.cfg.Refresh.ForecastMonths
	}
	return 12
}

func (s *refreshService) reloadPersisted() {
	if s.snapshotRepo == nil {
		return
	}
	snapshot, err := s.snapshotRepo.Load()
	if err != nil {
		s.log.Error("Failed to reload event cache", logger.ErrorField(err))
		return
	}
	if snapshot == nil {
		return
	}
	if snapshot.BySource == nil {
		snapshot.BySource = map[string][]entity.Event{}
	}
	if snapshot.SourceStats == nil {
		snapshot.SourceStats = map[string]entity.SourceStat{}
	}
	s.store.Set(snapshot)
	s.log.Info("Reloaded persisted event cache",
		logger.IntField("event_count", len(snapshot.Events)),
		logger.Field("updated_at", snapshot.UpdatedAt),
	)
}

func (s *refreshService) needsBootstrapRefresh() bool {
	snapshot := s.store.Get()
	if snapshot.UpdatedAt.IsZero() {
		return true
	}
	maxAge := 6 * time.Hour
	if d, err := time.ParseDuration(s.cfg.Refresh.MaxCacheAge); err == nil && d > 0 {
		maxAge = d
	}
	return s.now().UTC().Sub(snapshot.UpdatedAt) > maxAge
}

func (s *refreshService) notify(snapshot *entity.Snapshot, outcome string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendMessage(telegram.FormatRefreshSummary(snapshot, outcome)); err != nil {
		s.log.Warn("Failed to send refresh notification", logger.ErrorField(err))
	}
}
