package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
)

type ContactHandler struct {
	BaseHandler
	contactService services.ContactService
}

func NewContactHandler(contactService services.ContactService, logger utils.Logger) *ContactHandler {
	return &ContactHandler{
		BaseHandler:    NewBaseHandler(logger),
		contactService: contactService,
	}
}

// SubmitContact accepts a contact form submission. This endpoint is public.
// @Summary Submit contact message
// @Tags contact
// @Accept json
// @Produce json
// @Param message body services.CreateContactRequest true "Contact message"
// @Success 201 {object} models.ContactMessage
// @Failure 400 {object} ErrorResponse
// @Router /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	h.LogRequest(c, "Receiving contact message")

	var req services.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	msg, err := h.contactService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ListContacts lists contact messages (admin only)
// @Summary List contact messages
// @Tags contact
// @Produce json
// @Param resolved query bool false "Filter by resolution state"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /contact [get]
func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	var resolved *bool
	if resolvedStr := c.Query("resolved"); resolvedStr != "" {
		value, err := strconv.ParseBool(resolvedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid resolved filter",
				Details: err.Error(),
			})
			return
		}
		resolved = &value
	}

	limit, offset := h.parsePagination(c)

	messages, total, err := h.contactService.List(c.Request.Context(), resolved, limit, offset, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"total":    total,
	})
}

// GetContact retrieves a contact message by ID (admin only)
// @Summary Get contact message
// @Tags contact
// @Produce json
// @Param id path uint true "Message ID"
// @Success 200 {object} models.ContactMessage
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /contact/{id} [get]
func (h *ContactHandler) GetContact(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	msg, err := h.contactService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// ResolveContact marks a contact message as resolved (admin only)
// @Summary Resolve contact message
// @Tags contact
// @Produce json
// @Param id path uint true "Message ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /contact/{id}/resolve [post]
func (h *ContactHandler) ResolveContact(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Resolving contact message", "message_id", id)

	if err := h.contactService.Resolve(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Contact message resolved",
	})
}

// ===== HELPER METHODS =====

func (h *ContactHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrContactNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Contact message not found",
		})
	default:
		h.LogError(c, err, "Unhandled contact service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
