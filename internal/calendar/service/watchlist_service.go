package service

import (
	"context"
	"fmt"

	"golang-market-calendar/internal/calendar/repository"
	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/logger"
)

// WatchlistService manages the user's watchlist. Replace is all-or-nothing:
// one invalid entry rejects the whole batch.
type WatchlistService interface {
	List(ctx context.Context) ([]entity.WatchlistEntry, error)
	Replace(ctx context.Context, entries []entity.WatchlistEntry) ([]entity.WatchlistEntry, error)
}

type watchlistService struct {
	watchlistRepo repository.WatchlistRepository
	refresh       RefreshService
	log           *logger.Logger
}

// NewWatchlistService creates a WatchlistService. The refresh service is
// kicked after every accepted replace so watchlist changes show up without
// waiting for the next timer tick.
func NewWatchlistService(watchlistRepo repository.WatchlistRepository, refresh RefreshService, log *logger.Logger) WatchlistService {
	return &watchlistService{watchlistRepo: watchlistRepo, refresh: refresh, log: log}
}

// List returns the persisted watchlist.
func (s *watchlistService) List(_ context.Context) ([]entity.WatchlistEntry, error) {
	return s.watchlistRepo.List()
}

// Replace validates, dedupes and persists the whole watchlist, then triggers
// an immediate refresh cycle.
func (s *watchlistService) Replace(_ context.Context, entries []entity.WatchlistEntry) ([]entity.WatchlistEntry, error) {
	normalized := make([]entity.WatchlistEntry, 0, len(entries))
	seen := make(map[string]bool)

	for _, entry := range entries {
		valid, ok := entry.Normalize()
		if !ok {
			return nil, fmt.Errorf("%w: entry (name=%q, code=%q)", ErrInvalidWatchlist, entry.Name, entry.Code)
		}
		dedupeKey := valid.MarketCode + ":" + valid.Ticker()
		if seen[dedupeKey] {
			continue
		}
		seen[dedupeKey] = true
		normalized = append(normalized, valid)
	}

	if len(normalized) == 0 {
		return nil, ErrInvalidWatchlist
	}

	if err := s.watchlistRepo.Replace(normalized); err != nil {
		return nil, fmt.Errorf("persist watchlist: %w", err)
	}

	s.log.Info("Watchlist replaced", logger.IntField("entry_count", len(normalized)))
	s.refresh.TriggerAsync()

	return normalized, nil
}
