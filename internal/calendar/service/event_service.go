package service

import (
	"context"
	"time"

	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/calendar/repository"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/logger"
	"golang-market-calendar/pkg/utils"
)

// EventService serves range-filtered reads and status off the current
// snapshot. Reads never block on an in-flight refresh.
type EventService interface {
	GetEvents(ctx context.Context, start, end string) (*dto.EventsResponse, error)
	GetStatus(ctx context.Context) (*dto.StatusResponse, error)
}

type eventService struct {
	store         *SnapshotStore
	watchlistRepo repository.WatchlistRepository
	log           *logger.Logger
}

// NewEventService creates an EventService.
func NewEventService(store *SnapshotStore, watchlistRepo repository.WatchlistRepository, log *logger.Logger) EventService {
	return &eventService{store: store, watchlistRepo: watchlistRepo, log: log}
}

// GetEvents returns events whose start falls within the inclusive date
// range; an empty or malformed bound is treated as absent.
func (s *eventService) GetEvents(_ context.Context, start, end string) (*dto.EventsResponse, error) {
	snapshot := s.store.Get()
	events := filterEventsByRange(snapshot.Events, start, end)

	return &dto.EventsResponse{
		UpdatedAt: formatUpdatedAt(snapshot.UpdatedAt),
		Count:     len(events),
		Events:    events,
	}, nil
}

// GetStatus returns refresh metadata plus the current watchlist.
func (s *eventService) GetStatus(_ context.Context) (*dto.StatusResponse, error) {
	snapshot := s.store.Get()

	stocks, err := s.watchlistRepo.List()
	if err != nil {
		s.log.Error("Failed to load watchlist for status", logger.ErrorField(err))
		stocks = []entity.WatchlistEntry{}
	}

	return &dto.StatusResponse{
		UpdatedAt:   formatUpdatedAt(snapshot.UpdatedAt),
		EventCount:  len(snapshot.Events),
		SourceStats: snapshot.SourceStats,
		Stocks:      stocks,
	}, nil
}

func filterEventsByRange(events []entity.Event, start, end string) []entity.Event {
	startDay, startErr := utils.ParseDate(start)
	endDay, endErr := utils.ParseDate(end)
	hasStart := start != "" && startErr == nil
	hasEnd := end != "" && endErr == nil

	if !hasStart && !hasEnd {
		return events
	}

	filtered := make([]entity.Event, 0, len(events))
	for _, event := range events {
		day, err := utils.ParseDate(event.Start)
		if err != nil {
			continue
		}
		if hasStart && day.Before(startDay) {
			continue
		}
		if hasEnd && day.After(endDay) {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

// formatUpdatedAt renders the refresh time as RFC3339 UTC, or nil when no
// cycle has succeeded yet.
func formatUpdatedAt(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
