package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
	}
}

// GetMyNotifications lists the current user's notifications
// @Summary List my notifications
// @Tags notifications
// @Produce json
// @Param type query string false "Filter by notification type"
// @Param unread query bool false "Only unread notifications"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.NotificationListResponse
// @Router /notifications [get]
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	limit, offset := h.parsePagination(c)

	filters := repositories.NotificationFilters{
		Limit:  limit,
		Offset: offset,
	}

	if notificationType := c.Query("type"); notificationType != "" {
		t := models.NotificationType(notificationType)
		filters.Type = &t
	}

	if unreadStr := c.Query("unread"); unreadStr != "" {
		unread, err := strconv.ParseBool(unreadStr)
		if err == nil {
			filters.Unread = unread
		}
	}

	notifications, err := h.notificationService.GetByUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkRead marks one of the current user's notifications as read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path uint true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Notification marked as read",
	})
}

// MarkAllRead marks all of the current user's notifications as read
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "All notifications marked as read",
	})
}

// ===== HELPER METHODS =====

func (h *NotificationHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Notification not found",
		})
	default:
		h.LogError(c, err, "Unhandled notification service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
