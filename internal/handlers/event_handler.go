package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worship_management/internal/models"
	"worship_management/internal/services"
)

type EventHandler struct {
	events *services.EventService
	loc    *time.Location
	log    *zap.Logger
}

func NewEventHandler(events *services.EventService, loc *time.Location, log *zap.Logger) *EventHandler {
	return &EventHandler{events: events, loc: loc, log: log}
}

// yearMonth reads ?year=&month=, defaulting each to the current one in
// the organization timezone.
func (h *EventHandler) yearMonth(c *gin.Context) (int, int, bool) {
	now := time.Now().In(h.loc)
	year, month := now.Year(), int(now.Month())

	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid year")
			return 0, 0, false
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid month")
			return 0, 0, false
		}
		month = v
	}
	return year, month, true
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}

	events, err := h.events.GetEventsInMonth(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Events fetched successfully", gin.H{
		"year":   year,
		"month":  month,
		"events": events,
	})
}

func (h *EventHandler) GetCalendar(c *gin.Context) {
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}

	grid, err := h.events.GetMonthGrid(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Calendar fetched successfully", grid)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Event fetched successfully", event)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusCreated, "Event created successfully", event)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req models.EventUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Event updated successfully", event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.events.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	success(c, http.StatusOK, "Event deleted successfully", nil)
}
