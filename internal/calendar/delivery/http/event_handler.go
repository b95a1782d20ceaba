package http

import (
	"errors"
	"net/http"
	"time"

	"golang-market-calendar/internal/calendar/dto"
	"golang-market-calendar/internal/calendar/service"
	"golang-market-calendar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EventHandler handles HTTP requests for calendar events and refreshes.
type EventHandler struct {
	eventService   service.EventService
	refreshService service.RefreshService
	logger         *logger.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService service.EventService, refreshService service.RefreshService, logger *logger.Logger) *EventHandler {
	return &EventHandler{eventService: eventService, refreshService: refreshService, logger: logger}
}

// RegisterRoutes registers the event routes to the Echo group.
func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/events", h.GetEvents)
	g.GET("/status", h.GetStatus)
	g.POST("/refresh", h.Refresh)
}

// GetEvents returns the cached events, optionally filtered to an inclusive
// start/end date range.
func (h *EventHandler) GetEvents(c echo.Context) error {
	resp, err := h.eventService.GetEvents(c.Request().Context(), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		h.logger.Error("Failed to get events", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get events"})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetStatus returns refresh metadata and the current watchlist.
func (h *EventHandler) GetStatus(c echo.Context) error {
	resp, err := h.eventService.GetStatus(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get status", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get status"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh triggers a manual refresh cycle. A 409 means a cycle is already in
// flight; the in-flight cycle is never interrupted.
func (h *EventHandler) Refresh(c echo.Context) error {
	snapshot, err := h.refreshService.RunCycle(c.Request().Context(), true)
	if errors.Is(err, service.ErrRefreshBusy) {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if err != nil {
		h.logger.Error("Manual refresh failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Refresh failed"})
	}

	var updatedAt *string
	if !snapshot.UpdatedAt.IsZero() {
		formatted := snapshot.UpdatedAt.UTC().Format(time.RFC3339)
		updatedAt = &formatted
	}

	return c.JSON(http.StatusOK, dto.RefreshResponse{
		OK:        true,
		UpdatedAt: updatedAt,
		Stats:     snapshot.SourceStats,
	})
}
