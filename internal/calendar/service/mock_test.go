package service

import (
	"context"
	"time"

	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/entity"

	"github.com/stretchr/testify/mock"
)

// MockEastmoneyRepository is a mock implementation of
// repository.EastmoneyRepository.
type MockEastmoneyRepository struct {
	mock.Mock
}

func (m *MockEastmoneyRepository) GetAnnouncements(ctx context.Context, entry entity.WatchlistEntry) ([]dto.NoticeItem, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.NoticeItem), args.Error(1)
}

func (m *MockEastmoneyRepository) GetDisclosureCalendar(ctx context.Context, entry entity.WatchlistEntry) ([]dto.CalendarRow, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.CalendarRow), args.Error(1)
}

func (m *MockEastmoneyRepository) GetFastNews(ctx context.Context, maxPages int, oldestAllowed time.Time) ([]dto.FastNewsItem, error) {
	args := m.Called(ctx, maxPages, oldestAllowed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.FastNewsItem), args.Error(1)
}

func (m *MockEastmoneyRepository) Suggest(ctx context.Context, query string) ([]dto.SuggestRow, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.SuggestRow), args.Error(1)
}

// MockRefreshService is a mock implementation of RefreshService.
type MockRefreshService struct {
	mock.Mock
}

func (m *MockRefreshService) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockRefreshService) RunCycle(ctx context.Context, manual bool) (*entity.Snapshot, error) {
	args := m.Called(ctx, manual)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Snapshot), args.Error(1)
}

func (m *MockRefreshService) TriggerAsync() {
	m.Called()
}
