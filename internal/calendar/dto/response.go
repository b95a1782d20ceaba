package dto

import (
	"golang-market-calendar/internal/entity"
)

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	UpdatedAt *string        `json:"updatedAt"`
	Count     int            `json:"count"`
	Events    []entity.Event `json:"events"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	UpdatedAt   *string                      `json:"updatedAt"`
	EventCount  int                          `json:"eventCount"`
	SourceStats map[string]entity.SourceStat `json:"sourceStats"`
	Stocks      []entity.WatchlistEntry      `json:"stocks"`
}

// RefreshResponse is the body of POST /api/refresh.
type RefreshResponse struct {
	OK        bool                         `json:"ok"`
	UpdatedAt *string                      `json:"updatedAt"`
	Stats     map[string]entity.SourceStat `json:"stats"`
}

// WatchlistResponse is the body of GET /api/stocks.
type WatchlistResponse struct {
	Stocks []entity.WatchlistEntry `json:"stocks"`
}

// ReplaceWatchlistRequest is the body of POST /api/stocks.
type ReplaceWatchlistRequest struct {
	Stocks []entity.WatchlistEntry `json:"stocks"`
}

// ReplaceWatchlistResponse is the success body of POST /api/stocks.
type ReplaceWatchlistResponse struct {
	OK     bool                    `json:"ok"`
	Stocks []entity.WatchlistEntry `json:"stocks"`
}

// ResolveResponse is the success body of GET /api/stocks/resolve.
type ResolveResponse struct {
	OK    bool           `json:"ok"`
	Stock ResolvedTicker `json:"stock"`
}

// ResolvedTicker is a fully resolved (name, code, market) triple.
type ResolvedTicker struct {
	Name       string        `json:"name"`
	Code       string        `json:"code"`
	Market     entity.Market `json:"market"`
	MarketCode string        `json:"marketCode"`
	Group      string        `json:"group"`
}
