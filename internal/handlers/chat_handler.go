package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
)

type ChatHandler struct {
	BaseHandler
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: NewBaseHandler(logger),
		chatService: chatService,
	}
}

// PostMessage posts a message to a course chat room
// @Summary Post chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param message body services.ChatMessageRequest true "Message body"
// @Success 201 {object} models.ChatMessage
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/chat [post]
func (h *ChatHandler) PostMessage(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	var req services.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	msg, err := h.chatService.PostMessage(c.Request.Context(), courseID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetHistory returns a course chat room's message history, newest first
// @Summary Get chat history
// @Tags chat
// @Produce json
// @Param id path uint true "Course ID"
// @Param before query string false "Return messages older than this RFC3339 timestamp"
// @Param limit query int false "Max messages (default 50, max 100)"
// @Success 200 {array} models.ChatMessage
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/chat [get]
func (h *ChatHandler) GetHistory(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	filters := repositories.ChatFilters{
		Limit: h.parseIntQuery(c, "limit", 50),
	}

	if beforeStr := c.Query("before"); beforeStr != "" {
		before, err := time.Parse(time.RFC3339, beforeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid before timestamp",
				Details: "expected RFC3339 format",
			})
			return
		}
		filters.Before = &before
	}

	messages, err := h.chatService.GetHistory(c.Request.Context(), courseID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// ===== HELPER METHODS =====

func (h *ChatHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Course not found",
		})
	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Not enrolled in this course",
		})
	default:
		h.LogError(c, err, "Unhandled chat service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
