package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
)

type enrollmentService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	notification NotificationService
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, notification NotificationService) EnrollmentService {
	return &enrollmentService{
		repo:         repo,
		db:           db,
		logger:       logger,
		notification: notification,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, courseID uint, studentID string) (*EnrollmentResponse, error) {
	s.logger.Info("Enrolling student", "course_id", courseID, "student_id", studentID)

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if course.Status != models.CoursePublished {
		return nil, ErrCourseNotPublished
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, courseID, studentID)
	switch {
	case err == nil && enrollment.Status != models.EnrollmentWithdrawn:
		return nil, ErrAlreadyEnrolled
	case err == nil:
		// Re-enrolling after withdrawal reactivates the existing row.
		// Prior module progress is kept.
		enrollment.Status = models.EnrollmentActive
		enrollment.EnrolledAt = time.Now()
		enrollment.CompletedAt = nil
		if err := s.repo.Enrollment().Update(ctx, enrollment); err != nil {
			return nil, fmt.Errorf("failed to reactivate enrollment: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = &models.Enrollment{
			CourseID:   courseID,
			StudentID:  studentID,
			Status:     models.EnrollmentActive,
			EnrolledAt: time.Now(),
		}
		if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
			return nil, fmt.Errorf("failed to create enrollment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	if err := s.notification.NotifyEnrollment(ctx, enrollment); err != nil {
		s.logger.Error("Failed to send enrollment notification", "error", err, "enrollment_id", enrollment.ID)
	}

	return &EnrollmentResponse{Enrollment: enrollment}, nil
}

func (s *enrollmentService) Withdraw(ctx context.Context, courseID uint, studentID string) error {
	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment.Status == models.EnrollmentWithdrawn {
		return nil // Already withdrawn, idempotent
	}

	enrollment.Status = models.EnrollmentWithdrawn
	if err := s.repo.Enrollment().Update(ctx, enrollment); err != nil {
		return fmt.Errorf("failed to withdraw enrollment: %w", err)
	}

	s.logger.Info("Student withdrawn", "course_id", courseID, "student_id", studentID)
	return nil
}

func (s *enrollmentService) GetByStudent(ctx context.Context, studentID string, filters repositories.EnrollmentFilters) (*EnrollmentListResponse, error) {
	enrollments, total, err := s.repo.Enrollment().GetByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollments: %w", err)
	}

	responses := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		resp := &EnrollmentResponse{Enrollment: enrollment}

		progress, err := s.repo.Progress().GetCourseProgress(ctx, enrollment.CourseID, studentID)
		if err != nil {
			s.logger.Warn("Failed to load course progress", "error", err, "course_id", enrollment.CourseID)
		} else {
			resp.Progress = progress
		}

		responses = append(responses, resp)
	}

	return &EnrollmentListResponse{Enrollments: responses, Total: total}, nil
}

func (s *enrollmentService) GetByCourse(ctx context.Context, courseID uint, filters repositories.EnrollmentFilters, userID string) (*EnrollmentListResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if course.CreatedBy != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("permission check failed: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, courseID, "enrollment", "list", "not the course owner")
		}
	}

	filters.CourseID = &courseID
	enrollments, total, err := s.repo.Enrollment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	responses := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, &EnrollmentResponse{Enrollment: enrollment})
	}

	return &EnrollmentListResponse{Enrollments: responses, Total: total}, nil
}

func (s *enrollmentService) GetCourseProgress(ctx context.Context, courseID uint, studentID string) (*repositories.StudentCourseProgress, error) {
	exists, err := s.repo.Enrollment().HasActiveEnrollment(ctx, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !exists {
		return nil, ErrNotEnrolled
	}

	progress, err := s.repo.Progress().GetCourseProgress(ctx, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	return progress, nil
}

func (s *enrollmentService) GetModuleProgress(ctx context.Context, courseID uint, studentID string) ([]*models.ModuleProgress, error) {
	progress, err := s.repo.Progress().GetByCourseAndStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get module progress: %w", err)
	}
	return progress, nil
}
