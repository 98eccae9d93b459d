package handler

import (
	"net/http"
	"time"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
	tickets service.TicketService
}

func NewEventHandler(service service.EventService, tickets service.TicketService) *EventHandler {
	return &EventHandler{service: service, tickets: tickets}
}

func (h *EventHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("events", h.List)
	r.GET("events/:uuid", h.GetByEventID)
	r.GET("events/:uuid/availability", h.Availability)
	r.POST("events", h.Create)
	r.PUT("events/:uuid", h.UpdateByEventID)
	r.DELETE("events/:uuid", h.DeleteByEventID)
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ScheduledAt     *time.Time        `json:"scheduled_at"`
	CategoryID      *int              `json:"category_id"`
	VenueID         *int              `json:"venue_id"`
	GeneralCapacity *int              `json:"general_capacity"`
	VipCapacity     *int              `json:"vip_capacity"`
	State           *model.EventState `json:"state"`
}

// UpdateEventRequest 更新活動請求，category_id / venue_id 傳 null 代表清除
type UpdateEventRequest struct {
	Title           *string              `json:"title"`
	Description     *string              `json:"description"`
	ScheduledAt     *time.Time           `json:"scheduled_at"`
	CategoryID      model.Optional[*int] `json:"category_id"`
	VenueID         model.Optional[*int] `json:"venue_id"`
	GeneralCapacity *int                 `json:"general_capacity"`
	VipCapacity     *int                 `json:"vip_capacity"`
	State           *model.EventState    `json:"state"`
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		handleError(c, err, "ListEvents")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetByEventID(c *gin.Context) {
	eventID, ok := paramUUID(c)
	if !ok {
		return
	}
	event, err := h.service.GetByEventID(c, eventID)
	if err != nil {
		handleError(c, err, "GetEvent")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Availability(c *gin.Context) {
	eventID, ok := paramUUID(c)
	if !ok {
		return
	}
	availability, err := h.tickets.Availability(c, eventID)
	if err != nil {
		handleError(c, err, "Availability")
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	if req.ScheduledAt == nil {
		handleError(c, apperrors.NewValidationError(map[string]string{"scheduled_at": "please enter a date"}), "CreateEvent")
		return
	}

	created, err := h.service.Create(c, currentUserID(c), model.CreateEventParams{
		Title:           req.Title,
		Description:     req.Description,
		ScheduledAt:     *req.ScheduledAt,
		CategoryID:      req.CategoryID,
		VenueID:         req.VenueID,
		GeneralCapacity: req.GeneralCapacity,
		VipCapacity:     req.VipCapacity,
		State:           req.State,
	})
	if err != nil {
		handleError(c, err, "CreateEvent")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) UpdateByEventID(c *gin.Context) {
	eventID, ok := paramUUID(c)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := model.UpdateEventParams{
		Title:           req.Title,
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt,
		CategoryID:      req.CategoryID,
		VenueID:         req.VenueID,
		GeneralCapacity: req.GeneralCapacity,
		VipCapacity:     req.VipCapacity,
		State:           req.State,
	}
	if params.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field is required"})
		return
	}

	updated, err := h.service.Update(c, currentUserID(c), eventID, params)
	if err != nil {
		handleError(c, err, "UpdateEvent")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) DeleteByEventID(c *gin.Context) {
	eventID, ok := paramUUID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c, currentUserID(c), eventID); err != nil {
		handleError(c, err, "DeleteEvent")
		return
	}
	c.Status(http.StatusNoContent)
}
