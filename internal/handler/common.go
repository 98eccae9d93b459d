package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go-gin-event-ticketing/internal/admission"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TicketsPath 非持有人改票或刪票時導回的位置
const TicketsPath = "/api/v1/tickets"

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// paramInt 解析路徑中的整數 ID，失敗時直接回應 400
func paramInt(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func paramUUID(c *gin.Context) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event uuid"})
		return uuid.Nil, false
	}
	return eventID, true
}

// handleError 依錯誤種類對應 HTTP 狀態碼
func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	if rejection, ok := admission.AsRejection(err); ok {
		log.Warn("Ticket request rejected", zap.String("code", string(rejection.Code)))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{rejection.Reason}})
		return
	}
	if verr, ok := apperrors.AsValidation(err); ok {
		log.Warn("Validation failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrTicketNotFound),
		errors.Is(err, apperrors.ErrVenueNotFound),
		errors.Is(err, apperrors.ErrCategoryNotFound):
		log.Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotTicketOwner):
		log.Warn("Ticket owned by another user")
		c.Redirect(http.StatusSeeOther, TicketsPath)
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, apperrors.ErrEventLocked):
		log.Warn("Event locked")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{err.Error()}})
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrUserNotFound):
		log.Warn("Unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
