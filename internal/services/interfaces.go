package services

import (
	"context"
	"io"
	"time"

	"github.com/elimu-foundation/lms-service/internal/grading"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateModuleRequest = validator.ModuleCreateRequest
type UpdateModuleRequest = validator.ModuleUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type SubmitAssessmentRequest = validator.SubmitAssessmentRequest
type CreateContactRequest = validator.ContactCreateRequest
type ChatMessageRequest = validator.ChatMessageRequest

type CourseResponse struct {
	*models.Course
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanEnroll bool `json:"can_enroll"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type UpdateCourseStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required,oneof=Draft Published Archived"`
	Reason *string             `json:"reason" validate:"omitempty,max=500"`
}

type ModuleResponse struct {
	*models.CourseModule
	QuestionCount int `json:"question_count"`
}

type ReorderModulesRequest struct {
	ModuleIDs []uint `json:"module_ids" validate:"required,min=1"`
}

// ===== GRADING RELATED DTOs =====

// AssessmentResultResponse is returned after auto-marking a module
// submission. Results preserve question order from the request.
type AssessmentResultResponse struct {
	CourseID     uint                     `json:"course_id"`
	ModuleID     uint                     `json:"module_id"`
	ScorePercent int                      `json:"score"`
	Passed       bool                     `json:"passed"`
	EarnedPoints int                      `json:"earned_points"`
	TotalPoints  int                      `json:"total_points"`
	Results      []grading.QuestionResult `json:"results"`
	Feedback     string                   `json:"feedback"`
	Attempts     int                      `json:"attempts"`
	GradedAt     time.Time                `json:"graded_at"`
}

// ===== ENROLLMENT RELATED DTOs =====

type EnrollmentResponse struct {
	*models.Enrollment
	Progress *repositories.StudentCourseProgress `json:"progress,omitempty"`
}

type EnrollmentListResponse struct {
	Enrollments []*EnrollmentResponse `json:"enrollments"`
	Total       int64                 `json:"total"`
}

// ===== NOTIFICATION RELATED DTOs =====

type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	UnreadCount   int64                  `json:"unread_count"`
}

// ===== IMPORT/EXPORT DTOs =====

type QuestionImportResult struct {
	Imported int                        `json:"imported"`
	Skipped  int                        `json:"skipped"`
	Errors   validator.ValidationErrors `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, creatorID string) (*CourseResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error)
	GetByIDWithModules(ctx context.Context, id uint, userID string) (*CourseResponse, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List and search operations
	List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error)
	GetByCreator(ctx context.Context, creatorID string, filters repositories.CourseFilters) (*CourseListResponse, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, req *UpdateCourseStatusRequest, userID string) error
	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	// Statistics
	GetStats(ctx context.Context, id uint, userID string) (*repositories.CourseStats, error)

	// Permission checks
	CanEdit(ctx context.Context, courseID uint, userID string) (bool, error)
}

type ModuleService interface {
	// Core CRUD operations
	Create(ctx context.Context, courseID uint, req *CreateModuleRequest, userID string) (*ModuleResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ModuleResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*ModuleResponse, error)
	Update(ctx context.Context, id uint, req *UpdateModuleRequest, userID string) (*ModuleResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// Course scoped operations
	GetByCourse(ctx context.Context, courseID uint, userID string) ([]*ModuleResponse, error)
	Reorder(ctx context.Context, courseID uint, req *ReorderModulesRequest, userID string) error

	// Question management
	AddQuestion(ctx context.Context, moduleID uint, req *CreateQuestionRequest, userID string) (*models.ModuleQuestion, error)
	UpdateQuestion(ctx context.Context, questionID uint, req *UpdateQuestionRequest, userID string) (*models.ModuleQuestion, error)
	RemoveQuestion(ctx context.Context, questionID uint, userID string) error
	GetQuestions(ctx context.Context, moduleID uint, userID string) ([]*models.ModuleQuestion, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uint, studentID string) (*EnrollmentResponse, error)
	Withdraw(ctx context.Context, courseID uint, studentID string) error

	GetByStudent(ctx context.Context, studentID string, filters repositories.EnrollmentFilters) (*EnrollmentListResponse, error)
	GetByCourse(ctx context.Context, courseID uint, filters repositories.EnrollmentFilters, userID string) (*EnrollmentListResponse, error)

	// Progress
	GetCourseProgress(ctx context.Context, courseID uint, studentID string) (*repositories.StudentCourseProgress, error)
	GetModuleProgress(ctx context.Context, courseID uint, studentID string) ([]*models.ModuleProgress, error)
}

type GradingService interface {
	// SubmitModuleAssessment grades a submission against the questions
	// carried in the request, persists the outcome and notifies the
	// student.
	SubmitModuleAssessment(ctx context.Context, courseID, moduleID uint, req *SubmitAssessmentRequest, studentID string) (*AssessmentResultResponse, error)

	// EvaluateSubmission runs the marker without persisting anything.
	EvaluateSubmission(questions []grading.Question, answers []*string) (*grading.GradeResult, error)

	// GetResult returns the stored outcome of the latest submission.
	GetResult(ctx context.Context, moduleID uint, studentID string) (*models.ModuleProgress, error)
}

type NotificationService interface {
	NotifyCoursePublished(ctx context.Context, course *models.Course) error
	NotifyEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	NotifyModuleGraded(ctx context.Context, progress *models.ModuleProgress) error
	NotifyChatMessage(ctx context.Context, msg *models.ChatMessage, recipientIDs []string) error

	GetByUser(ctx context.Context, userID string, filters repositories.NotificationFilters) (*NotificationListResponse, error)
	MarkRead(ctx context.Context, id uint, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type ContactService interface {
	Submit(ctx context.Context, req *CreateContactRequest) (*models.ContactMessage, error)
	List(ctx context.Context, resolved *bool, limit, offset int, userID string) ([]*models.ContactMessage, int64, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.ContactMessage, error)
	Resolve(ctx context.Context, id uint, userID string) error
}

type ChatService interface {
	PostMessage(ctx context.Context, courseID uint, req *ChatMessageRequest, senderID string) (*models.ChatMessage, error)
	GetHistory(ctx context.Context, courseID uint, filters repositories.ChatFilters, userID string) ([]*models.ChatMessage, error)
}

type ImportExportService interface {
	// ImportQuestions reads an xlsx workbook of questions and attaches
	// them to a module.
	ImportQuestions(ctx context.Context, moduleID uint, r io.Reader, userID string) (*QuestionImportResult, error)

	// ExportQuestions writes a module's questions as an xlsx workbook.
	ExportQuestions(ctx context.Context, moduleID uint, w io.Writer, userID string) error
}

type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Course() CourseService
	Module() ModuleService
	Enrollment() EnrollmentService
	Grading() GradingService

	// Additional service getters
	Notification() NotificationService
	Contact() ContactService
	Chat() ChatService
	ImportExport() ImportExportService
	User() UserService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
