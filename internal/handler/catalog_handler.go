package handler

import (
	"net/http"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(service service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("venues", h.ListVenues)
	r.GET("venues/:id", h.GetVenue)
	r.POST("venues", h.CreateVenue)
	r.GET("categories", h.ListCategories)
	r.POST("categories", h.CreateCategory)
}

func (h *CatalogHandler) ListVenues(c *gin.Context) {
	venues, err := h.service.ListVenues(c)
	if err != nil {
		handleError(c, err, "ListVenues")
		return
	}
	c.JSON(http.StatusOK, venues)
}

func (h *CatalogHandler) GetVenue(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}
	venue, err := h.service.GetVenue(c, id)
	if err != nil {
		handleError(c, err, "GetVenue")
		return
	}
	c.JSON(http.StatusOK, venue)
}

func (h *CatalogHandler) CreateVenue(c *gin.Context) {
	var venue model.Venue
	if err := BindJson(c, &venue); err != nil {
		return
	}
	created, err := h.service.CreateVenue(c, currentUserID(c), &venue)
	if err != nil {
		handleError(c, err, "CreateVenue")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c)
	if err != nil {
		handleError(c, err, "ListCategories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var category model.Category
	if err := BindJson(c, &category); err != nil {
		return
	}
	created, err := h.service.CreateCategory(c, currentUserID(c), &category)
	if err != nil {
		handleError(c, err, "CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, created)
}
