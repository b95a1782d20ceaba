package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang-market-calendar/internal/calendar/config"
	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/calendar/repository"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/common"
	"golang-market-calendar/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type refreshFixture struct {
	emRepo       *MockEastmoneyRepository
	svc          *refreshService
	store        *SnapshotStore
	snapshotRepo repository.SnapshotRepository
	watchRepo    repository.WatchlistRepository
	now          time.Time
}

func newRefreshFixture(t *testing.T) *refreshFixture {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Refresh: config.Refresh{
			Schedule:       "@every 6h",
			MaxCacheAge:    "6h",
			MaxConcurrent:  2,
			ForecastMonths: 1,
			MacroMaxPages:  2,
			MacroMaxEvents: 80,
		},
		Storage: config.Storage{
			WatchlistFile:  filepath.Join(dir, "stocks.json"),
			EventCacheFile: filepath.Join(dir, "events_cache.json"),
		},
	}

	log := logger.NewNop()
	emRepo := new(MockEastmoneyRepository)
	watchRepo := repository.NewWatchlistRepository(cfg.Storage.WatchlistFile, log)
	snapshotRepo := repository.NewSnapshotRepository(cfg.Storage.EventCacheFile)
	store := NewSnapshotStore()

	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	normalizer := NewNormalizer(log)
	normalizer.now = nowFn
	forecaster := NewForecaster()
	forecaster.now = nowFn

	svc := NewRefreshService(cfg, log, emRepo, watchRepo, snapshotRepo, store, normalizer, forecaster, nil).(*refreshService)
	svc.now = nowFn

	return &refreshFixture{
		emRepo:       emRepo,
		svc:          svc,
		store:        store,
		snapshotRepo: snapshotRepo,
		watchRepo:    watchRepo,
		now:          now,
	}
}

func (f *refreshFixture) seedWatchlist(t *testing.T, entries ...entity.WatchlistEntry) {
	t.Helper()
	require.NoError(t, f.watchRepo.Replace(entries))
}

func eventIDs(events []entity.Event) []string {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	return ids
}

func TestRunCycle_SuccessAdvancesUpdatedAtAndPersists(t *testing.T) {
	f := newRefreshFixture(t)
	f.emRepo.On("GetFastNews", mock.Anything, 2, mock.Anything).Return([]dto.FastNewsItem{
		{Code: "fn1", Title: "美国2月CPI同比上涨3.2%", ShowTime: "2025-02-13 20:30:00"},
	}, nil)

	snapshot, err := f.svc.RunCycle(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, f.now.UTC().Truncate(time.Second), snapshot.UpdatedAt)
	assert.Contains(t, eventIDs(snapshot.Events), "macro:fn1")
	assert.NotEmpty(t, snapshot.BySource[common.SourceMacroForecast])
	assert.Equal(t, 1, snapshot.SourceStats[common.SourceMacroFastNews].OK)

	persisted, err := f.snapshotRepo.Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, snapshot.UpdatedAt.Unix(), persisted.UpdatedAt.Unix())
	assert.Equal(t, eventIDs(snapshot.Events), eventIDs(persisted.Events))
}

func TestRunCycle_FailedSourceKeepsStaleEvents(t *testing.T) {
	f := newRefreshFixture(t)
	f.seedWatchlist(t, aShareEntry())

	staleEvent := entity.Event{
		ID:       "stock:600519:AN2024001:财报公告",
		Category: entity.CategoryStock,
		Title:    "贵州茅台：2024年第三季度报告",
		Start:    "2024-10-25",
	}
	prev := entity.NewSnapshot(
		f.now.Add(-24*time.Hour),
		map[string][]entity.Event{common.SourceAnnouncements: {staleEvent}},
		map[string]entity.SourceStat{},
	)
	f.store.Set(prev)

	f.emRepo.On("GetAnnouncements", mock.Anything, mock.Anything).Return(nil, errors.New("status 503"))
	f.emRepo.On("GetDisclosureCalendar", mock.Anything, mock.Anything).Return([]dto.CalendarRow{
		{NoticeDate: "2025-04-18", Level1Content: "2024年年报预约披露"},
	}, nil)
	f.emRepo.On("GetFastNews", mock.Anything, 2, mock.Anything).Return([]dto.FastNewsItem{}, nil)

	snapshot, err := f.svc.RunCycle(context.Background(), false)
	require.NoError(t, err)

	// The failed source keeps its previous events while the others refresh.
	assert.Equal(t, []entity.Event{staleEvent}, snapshot.BySource[common.SourceAnnouncements])
	assert.Contains(t, eventIDs(snapshot.Events), staleEvent.ID)
	assert.NotEmpty(t, snapshot.BySource[common.SourceDisclosureCalendar])

	assert.Equal(t, f.now.UTC().Truncate(time.Second), snapshot.UpdatedAt)
	assert.Equal(t, 1, snapshot.SourceStats[common.SourceAnnouncements].Error)
	assert.Contains(t, snapshot.SourceStats[common.SourceAnnouncements].LastError, "503")
}

func TestRunCycle_AllFetchesFailingKeepsUpdatedAt(t *testing.T) {
	f := newRefreshFixture(t)
	f.seedWatchlist(t, aShareEntry())

	prevUpdated := f.now.Add(-48 * time.Hour)
	prev := entity.NewSnapshot(
		prevUpdated,
		map[string][]entity.Event{
			common.SourceAnnouncements: {{ID: "stock:600519:AN2024001:财报公告", Start: "2024-10-25"}},
		},
		map[string]entity.SourceStat{},
	)
	f.store.Set(prev)

	upstream := errors.New("connection reset")
	f.emRepo.On("GetAnnouncements", mock.Anything, mock.Anything).Return(nil, upstream)
	f.emRepo.On("GetDisclosureCalendar", mock.Anything, mock.Anything).Return(nil, upstream)
	f.emRepo.On("GetFastNews", mock.Anything, 2, mock.Anything).Return(nil, upstream)

	snapshot, err := f.svc.RunCycle(context.Background(), false)
	require.NoError(t, err)

	// The forecast source regenerates locally, but it alone never advances
	// the refresh time.
	assert.Equal(t, prevUpdated, snapshot.UpdatedAt)
	assert.Contains(t, eventIDs(snapshot.Events), "stock:600519:AN2024001:财报公告")

	persisted, err := f.snapshotRepo.Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestRunCycle_ConcurrentCycleRejected(t *testing.T) {
	f := newRefreshFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})
	f.emRepo.On("GetFastNews", mock.Anything, 2, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]dto.FastNewsItem{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.RunCycle(context.Background(), false)
		done <- err
	}()

	<-started
	_, err := f.svc.RunCycle(context.Background(), true)
	assert.ErrorIs(t, err, ErrRefreshBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestReloadPersisted_RestoresSnapshotOnBoot(t *testing.T) {
	f := newRefreshFixture(t)

	saved := entity.NewSnapshot(
		f.now.Add(-time.Hour),
		map[string][]entity.Event{
			common.SourceMacroFastNews: {{ID: "macro:fn1", Start: "2025-02-13"}},
		},
		map[string]entity.SourceStat{common.SourceMacroFastNews: {OK: 1}},
	)
	require.NoError(t, f.snapshotRepo.Save(saved))

	f.svc.reloadPersisted()

	got := f.store.Get()
	assert.Equal(t, saved.UpdatedAt.Unix(), got.UpdatedAt.Unix())
	assert.Contains(t, eventIDs(got.Events), "macro:fn1")
	assert.False(t, f.svc.needsBootstrapRefresh())
}

func TestNeedsBootstrapRefresh_StaleCache(t *testing.T) {
	f := newRefreshFixture(t)

	assert.True(t, f.svc.needsBootstrapRefresh(), "empty store must trigger a refresh")

	f.store.Set(entity.NewSnapshot(f.now.Add(-7*time.Hour), map[string][]entity.Event{}, map[string]entity.SourceStat{}))
	assert.True(t, f.svc.needsBootstrapRefresh(), "cache older than max age must trigger a refresh")

	f.store.Set(entity.NewSnapshot(f.now.Add(-time.Hour), map[string][]entity.Event{}, map[string]entity.SourceStat{}))
	assert.False(t, f.svc.needsBootstrapRefresh())
}
