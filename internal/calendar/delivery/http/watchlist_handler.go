package http

import (
	"errors"
	"net/http"

	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/calendar/service"
	"golang-market-calendar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WatchlistHandler handles HTTP requests for the watchlist and ticker
// resolution.
type WatchlistHandler struct {
	watchlistService service.WatchlistService
	resolverService  service.ResolverService
	logger           *logger.Logger
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistService service.WatchlistService, resolverService service.ResolverService, logger *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlistService: watchlistService, resolverService: resolverService, logger: logger}
}

// RegisterRoutes registers the watchlist routes to the Echo group.
func (h *WatchlistHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/stocks", h.ListWatchlist)
	g.POST("/stocks", h.ReplaceWatchlist)
	g.GET("/stocks/resolve", h.Resolve)
}

// ListWatchlist returns the persisted watchlist.
func (h *WatchlistHandler) ListWatchlist(c echo.Context) error {
	stocks, err := h.watchlistService.List(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list watchlist", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list watchlist"})
	}
	return c.JSON(http.StatusOK, dto.WatchlistResponse{Stocks: stocks})
}

// ReplaceWatchlist replaces the whole watchlist. The batch is rejected when
// any entry is missing a name or code after resolution.
func (h *WatchlistHandler) ReplaceWatchlist(c echo.Context) error {
	var req dto.ReplaceWatchlistRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.Stocks == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stocks must be an array"})
	}

	stocks, err := h.watchlistService.Replace(c.Request().Context(), req.Stocks)
	if errors.Is(err, service.ErrInvalidWatchlist) {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{OK: false, Error: err.Error()})
	}
	if err != nil {
		h.logger.Error("Failed to replace watchlist", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save watchlist"})
	}

	return c.JSON(http.StatusOK, dto.ReplaceWatchlistResponse{OK: true, Stocks: stocks})
}

// Resolve resolves a free-text query to a canonical ticker. No match is a
// 404, not a server error.
func (h *WatchlistHandler) Resolve(c echo.Context) error {
	query := c.QueryParam("q")
	group := c.QueryParam("group")

	if query == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{OK: false, Error: "q must not be empty"})
	}
	if group != "" && group != "A" && group != "HK" && group != "US" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{OK: false, Error: "group must be one of A, HK, US"})
	}

	resolved, err := h.resolverService.Resolve(c.Request().Context(), query, group)
	if errors.Is(err, service.ErrTickerNotFound) {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{OK: false, Error: "no matching ticker found"})
	}
	if err != nil {
		h.logger.Error("Failed to resolve ticker", logger.StringField("query", query), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to resolve ticker"})
	}

	return c.JSON(http.StatusOK, dto.ResolveResponse{OK: true, Stock: *resolved})
}
