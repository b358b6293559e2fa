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
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
	validator     *validator.Validator
}

func NewCourseHandler(
	courseService services.CourseService,
	validator *validator.Validator,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
		validator:     validator,
	}
}

// CreateCourse creates a new course
// @Summary Create course
// @Description Creates a new course in Draft status
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	h.LogRequest(c, "Creating course")

	var req services.CreateCourseRequest
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

	course, err := h.courseService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse retrieves a course by ID
// @Summary Get course
// @Description Retrieves a course by its ID
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// GetCourseWithModules retrieves a course together with its module list
// @Summary Get course with modules
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/details [get]
func (h *CourseHandler) GetCourseWithModules(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	course, err := h.courseService.GetByIDWithModules(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourse updates an existing course
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param course body services.UpdateCourseRequest true "Course data"
// @Success 200 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", id)

	var req services.UpdateCourseRequest
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

	course, err := h.courseService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse deletes a course
// @Summary Delete course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", id)

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Course deleted successfully",
	})
}

// ListCourses lists courses with optional filtering
// @Summary List courses
// @Description Get a paginated list of courses. Students only see published courses.
// @Tags courses
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search query (title or description)"
// @Param status query string false "Filter by status"
// @Param level query string false "Filter by level"
// @Param category query string false "Filter by category"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	filters := h.parseCourseFilters(c)

	courses, err := h.courseService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// GetCoursesByCreator lists courses owned by a creator
// @Summary List courses by creator
// @Tags courses
// @Produce json
// @Param creator_id path string true "Creator ID"
// @Success 200 {object} services.CourseListResponse
// @Router /courses/creator/{creator_id} [get]
func (h *CourseHandler) GetCoursesByCreator(c *gin.Context) {
	creatorID := strings.TrimSpace(c.Param("creator_id"))
	if creatorID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid creator_id",
			Details: "ID cannot be empty",
		})
		return
	}

	filters := h.parseCourseFilters(c)

	courses, err := h.courseService.GetByCreator(c.Request.Context(), creatorID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// UpdateCourseStatus changes the lifecycle status of a course
// @Summary Update course status
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param status body services.UpdateCourseStatusRequest true "New status"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /courses/{id}/status [put]
func (h *CourseHandler) UpdateCourseStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating course status", "course_id", id)

	var req services.UpdateCourseStatusRequest
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

	if err := h.courseService.UpdateStatus(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Course status updated successfully",
	})
}

// PublishCourse publishes a draft course
// @Summary Publish course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Publishing course", "course_id", id)

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	if err := h.courseService.Publish(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Course published successfully",
	})
}

// ArchiveCourse archives a course
// @Summary Archive course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /courses/{id}/archive [post]
func (h *CourseHandler) ArchiveCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Archiving course", "course_id", id)

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	if err := h.courseService.Archive(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Course archived successfully",
	})
}

// GetCourseStats returns enrollment and completion statistics for a course
// @Summary Get course stats
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} repositories.CourseStats
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/stats [get]
func (h *CourseHandler) GetCourseStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	stats, err := h.courseService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ===== HELPER METHODS =====

func (h *CourseHandler) parseCourseFilters(c *gin.Context) repositories.CourseFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.CourseFilters{
		Query:     strings.TrimSpace(c.Query("q")),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if status := c.Query("status"); status != "" {
		courseStatus := models.CourseStatus(status)
		filters.Status = &courseStatus
	}

	if level := c.Query("level"); level != "" {
		courseLevel := models.CourseLevel(level)
		filters.Level = &courseLevel
	}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filters.Category = &category
	}

	return filters
}

func (h *CourseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
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
	case errors.Is(err, services.ErrCourseNotPublished):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Course is not published",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
		})
	default:
		h.LogError(c, err, "Unhandled course service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
