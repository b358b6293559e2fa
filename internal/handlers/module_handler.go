package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type ModuleHandler struct {
	BaseHandler
	moduleService services.ModuleService
	importExport  services.ImportExportService
	validator     *validator.Validator
}

func NewModuleHandler(
	moduleService services.ModuleService,
	importExport services.ImportExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler:   NewBaseHandler(logger),
		moduleService: moduleService,
		importExport:  importExport,
		validator:     validator,
	}
}

// CreateModule adds a module (with optional questions) to a course
// @Summary Create module
// @Tags modules
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param module body services.CreateModuleRequest true "Module data"
// @Success 201 {object} services.ModuleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/modules [post]
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	h.LogRequest(c, "Creating module", "course_id", courseID)

	var req services.CreateModuleRequest
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

	module, err := h.moduleService.Create(c.Request.Context(), courseID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// GetModule retrieves a module by ID
// @Summary Get module
// @Tags modules
// @Produce json
// @Param id path uint true "Module ID"
// @Success 200 {object} services.ModuleResponse
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id} [get]
func (h *ModuleHandler) GetModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	module, err := h.moduleService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// GetModuleWithQuestions retrieves a module including its question list
// @Summary Get module with questions
// @Tags modules
// @Produce json
// @Param id path uint true "Module ID"
// @Success 200 {object} services.ModuleResponse
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id}/details [get]
func (h *ModuleHandler) GetModuleWithQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	module, err := h.moduleService.GetByIDWithQuestions(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// UpdateModule updates a module
// @Summary Update module
// @Tags modules
// @Accept json
// @Produce json
// @Param id path uint true "Module ID"
// @Param module body services.UpdateModuleRequest true "Module data"
// @Success 200 {object} services.ModuleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id} [put]
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating module", "module_id", id)

	var req services.UpdateModuleRequest
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

	module, err := h.moduleService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// DeleteModule removes a module and its questions
// @Summary Delete module
// @Tags modules
// @Produce json
// @Param id path uint true "Module ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id} [delete]
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting module", "module_id", id)

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	if err := h.moduleService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Module deleted successfully",
	})
}

// GetCourseModules lists a course's modules in order
// @Summary List course modules
// @Tags modules
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {array} services.ModuleResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/modules [get]
func (h *ModuleHandler) GetCourseModules(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	modules, err := h.moduleService.GetByCourse(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

// ReorderModules applies a new module ordering within a course
// @Summary Reorder modules
// @Tags modules
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param order body services.ReorderModulesRequest true "Module IDs in desired order"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/modules/reorder [put]
func (h *ModuleHandler) ReorderModules(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	h.LogRequest(c, "Reordering modules", "course_id", courseID)

	var req services.ReorderModulesRequest
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

	if err := h.moduleService.Reorder(c.Request.Context(), courseID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Modules reordered successfully",
	})
}

// AddQuestion adds a question to a module
// @Summary Add question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Module ID"
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.ModuleQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id}/questions [post]
func (h *ModuleHandler) AddQuestion(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Adding question", "module_id", moduleID)

	var req services.CreateQuestionRequest
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

	question, err := h.moduleService.AddQuestion(c.Request.Context(), moduleID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion updates a question
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param question_id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Question data"
// @Success 200 {object} models.ModuleQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{question_id} [put]
func (h *ModuleHandler) UpdateQuestion(c *gin.Context) {
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", questionID)

	var req services.UpdateQuestionRequest
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

	question, err := h.moduleService.UpdateQuestion(c.Request.Context(), questionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// RemoveQuestion deletes a question from its module
// @Summary Remove question
// @Tags questions
// @Produce json
// @Param question_id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{question_id} [delete]
func (h *ModuleHandler) RemoveQuestion(c *gin.Context) {
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	h.LogRequest(c, "Removing question", "question_id", questionID)

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	if err := h.moduleService.RemoveQuestion(c.Request.Context(), questionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question removed successfully",
	})
}

// GetQuestions lists a module's questions in order
// @Summary List module questions
// @Tags questions
// @Produce json
// @Param id path uint true "Module ID"
// @Success 200 {array} models.ModuleQuestion
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id}/questions [get]
func (h *ModuleHandler) GetQuestions(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	questions, err := h.moduleService.GetQuestions(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// ImportQuestions uploads an xlsx workbook of questions into a module
// @Summary Import questions from xlsx
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Module ID"
// @Param file formData file true "Question workbook"
// @Success 200 {object} services.QuestionImportResult
// @Failure 400 {object} ErrorResponse
// @Router /modules/{id}/questions/import [post]
func (h *ModuleHandler) ImportQuestions(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Importing questions", "module_id", moduleID)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open upload",
			Details: err.Error(),
		})
		return
	}
	defer src.Close()

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	result, err := h.importExport.ImportQuestions(c.Request.Context(), moduleID, src, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuestions downloads a module's questions as an xlsx workbook
// @Summary Export questions to xlsx
// @Tags questions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Module ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /modules/{id}/questions/export [get]
func (h *ModuleHandler) ExportQuestions(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Exporting questions", "module_id", moduleID)

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="questions.xlsx"`)

	if err := h.importExport.ExportQuestions(c.Request.Context(), moduleID, c.Writer, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
}

// ===== HELPER METHODS =====

func (h *ModuleHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrModuleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Module not found",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Course not found",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
		})
	default:
		h.LogError(c, err, "Unhandled module service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
