package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
	}
}

// Enroll enrolls the current user into a published course
// @Summary Enroll in course
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 201 {object} services.EnrollmentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Enrolling student", "course_id", courseID, "student_id", userID)

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// Withdraw withdraws the current user from a course
// @Summary Withdraw from course
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enroll [delete]
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Withdrawing student", "course_id", courseID, "student_id", userID)

	if err := h.enrollmentService.Withdraw(c.Request.Context(), courseID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Withdrawn from course successfully",
	})
}

// GetMyEnrollments lists the current user's enrollments with progress
// @Summary List my enrollments
// @Tags enrollments
// @Produce json
// @Param status query string false "Filter by enrollment status"
// @Success 200 {object} services.EnrollmentListResponse
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) GetMyEnrollments(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseEnrollmentFilters(c)

	enrollments, err := h.enrollmentService.GetByStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// GetCourseEnrollments lists a course's enrollments (course owner or admin)
// @Summary List course enrollments
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.EnrollmentListResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/enrollments [get]
func (h *EnrollmentHandler) GetCourseEnrollments(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseEnrollmentFilters(c)

	enrollments, err := h.enrollmentService.GetByCourse(c.Request.Context(), courseID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// GetCourseProgress returns the current user's progress summary for a course
// @Summary Get course progress
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} repositories.StudentCourseProgress
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/progress [get]
func (h *EnrollmentHandler) GetCourseProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	progress, err := h.enrollmentService.GetCourseProgress(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetModuleProgress lists the current user's per-module outcomes for a course
// @Summary Get per-module progress
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {array} models.ModuleProgress
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/progress/modules [get]
func (h *EnrollmentHandler) GetModuleProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	progress, err := h.enrollmentService.GetModuleProgress(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ===== HELPER METHODS =====

func (h *EnrollmentHandler) parseEnrollmentFilters(c *gin.Context) repositories.EnrollmentFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.EnrollmentFilters{
		Limit:  limit,
		Offset: offset,
	}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		enrollmentStatus := models.EnrollmentStatus(status)
		filters.Status = &enrollmentStatus
	}

	return filters
}

func (h *EnrollmentHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrCourseNotPublished):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Course is not open for enrollment",
		})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Already enrolled in this course",
		})
	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Not enrolled in this course",
		})
	case errors.Is(err, services.ErrEnrollmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Enrollment not found",
		})
	default:
		h.LogError(c, err, "Unhandled enrollment service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
