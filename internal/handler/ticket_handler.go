package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("events/:uuid/tickets", h.Purchase)
	r.GET("tickets", h.List)
	r.GET("tickets/:id", h.Get)
	r.PUT("tickets/:id", h.Edit)
	r.DELETE("tickets/:id", h.Delete)
}

// flexString 接受 JSON 數字或字串，原樣保留給 admission 解析
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

// TicketRequest 購票與改票共用，支援 JSON 與表單
type TicketRequest struct {
	Quantity flexString `json:"quantity"`
	Type     string     `json:"type"`
}

func bindTicketRequest(c *gin.Context) (model.TicketRequest, bool) {
	if c.ContentType() == binding.MIMEJSON {
		var req TicketRequest
		if err := BindJson(c, &req); err != nil {
			return model.TicketRequest{}, false
		}
		return model.TicketRequest{Quantity: string(req.Quantity), Type: req.Type}, true
	}

	return model.TicketRequest{
		Quantity: c.PostForm("quantity"),
		Type:     c.PostForm("type"),
	}, true
}

func (h *TicketHandler) Purchase(c *gin.Context) {
	eventID, ok := paramUUID(c)
	if !ok {
		return
	}
	req, ok := bindTicketRequest(c)
	if !ok {
		return
	}

	ticket, err := h.service.Purchase(c, currentUserID(c), eventID, req)
	if err != nil {
		handleError(c, err, "PurchaseTicket")
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) List(c *gin.Context) {
	tickets, err := h.service.ListByUser(c, currentUserID(c))
	if err != nil {
		handleError(c, err, "ListTickets")
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}
	ticket, err := h.service.GetForUser(c, currentUserID(c), id)
	if err != nil {
		handleError(c, err, "GetTicket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) Edit(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}
	req, ok := bindTicketRequest(c)
	if !ok {
		return
	}

	ticket, err := h.service.Edit(c, currentUserID(c), id, req)
	if err != nil {
		handleError(c, err, "EditTicket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) Delete(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c, currentUserID(c), id); err != nil {
		handleError(c, err, "DeleteTicket")
		return
	}
	c.Status(http.StatusNoContent)
}
