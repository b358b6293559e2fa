package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	validator      *validator.Validator
}

func NewGradingHandler(
	gradingService services.GradingService,
	validator *validator.Validator,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		validator:      validator,
	}
}

// SubmitAssessment auto-marks a module submission for the current user
// @Summary Submit module assessment
// @Description Grades the submitted answers, stores the outcome and returns per-question results with feedback
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param module_id path uint true "Module ID"
// @Param submission body services.SubmitAssessmentRequest true "Questions and answers"
// @Success 200 {object} services.AssessmentResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/modules/{module_id}/submit [post]
func (h *GradingHandler) SubmitAssessment(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Submitting module assessment", "course_id", courseID, "module_id", moduleID)

	var req services.SubmitAssessmentRequest
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

	result, err := h.gradingService.SubmitModuleAssessment(c.Request.Context(), courseID, moduleID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResult returns the stored outcome of the current user's latest submission
// @Summary Get module result
// @Tags grading
// @Produce json
// @Param id path uint true "Module ID"
// @Success 200 {object} models.ModuleProgress
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id}/result [get]
func (h *GradingHandler) GetResult(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	result, err := h.gradingService.GetResult(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ===== HELPER METHODS =====

func (h *GradingHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrModuleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Module not found",
		})
	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Not enrolled in this course",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No submission found for this module",
		})
	default:
		h.LogError(c, err, "Unhandled grading service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
