package repositories

import (
	"context"
	"time"

	"github.com/elimu-foundation/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Status    *models.CourseStatus `json:"status"`
	Level     *models.CourseLevel  `json:"level"`
	Category  *string              `json:"category"`
	CreatedBy *string              `json:"created_by"`
	Query     string               `json:"query"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "created_at", "title"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	Status    *models.EnrollmentStatus `json:"status"`
	CourseID  *uint                    `json:"course_id"`
	StudentID *string                  `json:"student_id"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

type NotificationFilters struct {
	Type   *models.NotificationType `json:"type"`
	Unread bool                     `json:"unread"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

type ChatFilters struct {
	Before *time.Time `json:"before"`
	Limit  int        `json:"limit"`
}

// ===== SHARED STATISTICS STRUCTS =====

type CourseStats struct {
	ModuleCount     int     `json:"module_count"`
	EnrollmentCount int     `json:"enrollment_count"`
	CompletionRate  float64 `json:"completion_rate"`
	AverageScore    float64 `json:"average_score"`
}

type StudentCourseProgress struct {
	CourseID         uint    `json:"course_id"`
	TotalModules     int     `json:"total_modules"`
	CompletedModules int     `json:"completed_modules"`
	AverageScore     float64 `json:"average_score"`
}

// ===== REPOSITORY INTERFACES =====

// CourseRepository interface for course-specific operations
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetByIDWithModules(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id uint, status models.CourseStatus) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters CourseFilters) ([]*models.Course, int64, error)

	GetStats(ctx context.Context, id uint) (*CourseStats, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
}

// ModuleRepository interface for course module operations
type ModuleRepository interface {
	Create(ctx context.Context, module *models.CourseModule) error
	GetByID(ctx context.Context, id uint) (*models.CourseModule, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.CourseModule, error)
	Update(ctx context.Context, module *models.CourseModule) error
	Delete(ctx context.Context, id uint) error

	GetByCourse(ctx context.Context, courseID uint) ([]*models.CourseModule, error)
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
	Reorder(ctx context.Context, courseID uint, moduleIDs []uint) error
}

// QuestionRepository interface for module question operations
type QuestionRepository interface {
	Create(ctx context.Context, question *models.ModuleQuestion) error
	CreateBatch(ctx context.Context, questions []*models.ModuleQuestion) error
	GetByID(ctx context.Context, id uint) (*models.ModuleQuestion, error)
	Update(ctx context.Context, question *models.ModuleQuestion) error
	Delete(ctx context.Context, id uint) error

	GetByModule(ctx context.Context, moduleID uint) ([]*models.ModuleQuestion, error)
	CountByModule(ctx context.Context, moduleID uint) (int64, error)
}

// EnrollmentRepository interface for enrollment operations
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id uint) (*models.Enrollment, error)
	GetByCourseAndStudent(ctx context.Context, courseID uint, studentID string) (*models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error

	List(ctx context.Context, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	GetByStudent(ctx context.Context, studentID string, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
	// HasActiveEnrollment reports whether the student holds a non-withdrawn
	// enrollment (active or completed) in the course.
	HasActiveEnrollment(ctx context.Context, courseID uint, studentID string) (bool, error)
}

// ProgressRepository interface for module progress operations
type ProgressRepository interface {
	Upsert(ctx context.Context, progress *models.ModuleProgress) error
	GetByModuleAndStudent(ctx context.Context, moduleID uint, studentID string) (*models.ModuleProgress, error)
	GetByCourseAndStudent(ctx context.Context, courseID uint, studentID string) ([]*models.ModuleProgress, error)
	GetCourseProgress(ctx context.Context, courseID uint, studentID string) (*StudentCourseProgress, error)
	CountCompleted(ctx context.Context, courseID uint, studentID string) (int64, error)
}

// ContactRepository interface for contact form operations
type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	GetByID(ctx context.Context, id uint) (*models.ContactMessage, error)
	List(ctx context.Context, resolved *bool, limit, offset int) ([]*models.ContactMessage, int64, error)
	MarkResolved(ctx context.Context, id uint, resolvedBy string) error
}

// ChatRepository interface for course chat operations
type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	GetByCourse(ctx context.Context, courseID uint, filters ChatFilters) ([]*models.ChatMessage, error)
}

// NotificationRepository interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	GetByUser(ctx context.Context, userID string, filters NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id uint, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}
