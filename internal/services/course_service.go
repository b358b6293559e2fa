package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type courseService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	notification NotificationService
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notification NotificationService) CourseService {
	return &courseService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		notification: notification,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, creatorID string) (*CourseResponse, error) {
	s.logger.Info("Creating course", "creator_id", creatorID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	canCreate, err := s.canManageCourses(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canCreate {
		return nil, NewPermissionError(creatorID, 0, "course", "create", "insufficient role permissions")
	}

	course := &models.Course{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Level:             req.Level,
		Status:            models.CourseDraft,
		MinPassPercentage: 70,
		CreatedBy:         creatorID,
	}
	if req.MinPassPercentage != nil {
		course.MinPassPercentage = *req.MinPassPercentage
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	return s.buildCourseResponse(ctx, course, creatorID), nil
}

func (s *courseService) GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.checkViewAccess(ctx, course, userID); err != nil {
		return nil, err
	}

	return s.buildCourseResponse(ctx, course, userID), nil
}

func (s *courseService) GetByIDWithModules(ctx context.Context, id uint, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByIDWithModules(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.checkViewAccess(ctx, course, userID); err != nil {
		return nil, err
	}

	course.ModuleCount = len(course.Modules)

	return s.buildCourseResponse(ctx, course, userID), nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	course, err := s.getOwnedCourse(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.MinPassPercentage != nil {
		course.MinPassPercentage = *req.MinPassPercentage
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return s.buildCourseResponse(ctx, course, userID), nil
}

func (s *courseService) Delete(ctx context.Context, id uint, userID string) error {
	course, err := s.getOwnedCourse(ctx, id, userID, "delete")
	if err != nil {
		return err
	}

	enrollments, err := s.repo.Enrollment().CountByCourse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	if enrollments > 0 && course.Status != models.CourseArchived {
		return NewBusinessRuleError("course_delete", "course with enrollments must be archived before deletion",
			map[string]interface{}{"enrollment_count": enrollments})
	}

	if err := s.repo.Course().Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "user_id", userID)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	// Students only see published courses
	isInstructor, err := s.canManageCourses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !isInstructor {
		published := models.CoursePublished
		filters.Status = &published
	}

	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return s.buildCourseListResponse(ctx, courses, total, filters, userID), nil
}

func (s *courseService) GetByCreator(ctx context.Context, creatorID string, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().GetByCreator(ctx, creatorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses by creator: %w", err)
	}

	return s.buildCourseListResponse(ctx, courses, total, filters, creatorID), nil
}

// ===== STATUS MANAGEMENT =====

func (s *courseService) UpdateStatus(ctx context.Context, id uint, req *UpdateCourseStatusRequest, userID string) error {
	course, err := s.getOwnedCourse(ctx, id, userID, "update status")
	if err != nil {
		return err
	}

	moduleCount, err := s.repo.Module().CountByCourse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count modules: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(course.Status, req.Status, int(moduleCount)); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Course().UpdateStatus(ctx, id, req.Status); err != nil {
		return fmt.Errorf("failed to update course status: %w", err)
	}

	if req.Status == models.CoursePublished {
		course.Status = models.CoursePublished
		if err := s.notification.NotifyCoursePublished(ctx, course); err != nil {
			// Notification failure must not roll back the publish
			s.logger.Error("Failed to send course published notification", "error", err, "course_id", id)
		}
	}

	s.logger.Info("Course status updated", "course_id", id, "status", req.Status, "user_id", userID)
	return nil
}

func (s *courseService) Publish(ctx context.Context, id uint, userID string) error {
	return s.UpdateStatus(ctx, id, &UpdateCourseStatusRequest{Status: models.CoursePublished}, userID)
}

func (s *courseService) Archive(ctx context.Context, id uint, userID string) error {
	return s.UpdateStatus(ctx, id, &UpdateCourseStatusRequest{Status: models.CourseArchived}, userID)
}

// ===== STATISTICS =====

func (s *courseService) GetStats(ctx context.Context, id uint, userID string) (*repositories.CourseStats, error) {
	if _, err := s.getOwnedCourse(ctx, id, userID, "view stats"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Course().GetStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}
	return stats, nil
}

// ===== PERMISSION CHECKS =====

func (s *courseService) CanEdit(ctx context.Context, courseID uint, userID string) (bool, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrCourseNotFound
		}
		return false, err
	}

	if course.CreatedBy == userID {
		return true, nil
	}
	return s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
}

// ===== HELPERS =====

func (s *courseService) canManageCourses(ctx context.Context, userID string) (bool, error) {
	isInstructor, err := s.repo.User().HasRole(ctx, userID, models.RoleInstructor)
	if err != nil {
		return false, err
	}
	if isInstructor {
		return true, nil
	}
	return s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
}

// getOwnedCourse loads a course and verifies the user can manage it
func (s *courseService) getOwnedCourse(ctx context.Context, id uint, userID, action string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
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
			return nil, NewPermissionError(userID, id, "course", action, "not the course owner")
		}
	}

	return course, nil
}

// checkViewAccess allows owners and admins to see drafts; everyone else
// only sees published or archived courses.
func (s *courseService) checkViewAccess(ctx context.Context, course *models.Course, userID string) error {
	if course.Status != models.CourseDraft || course.CreatedBy == userID {
		return nil
	}

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !isAdmin {
		return ErrCourseNotFound
	}
	return nil
}

func (s *courseService) buildCourseResponse(ctx context.Context, course *models.Course, userID string) *CourseResponse {
	canEdit := course.CreatedBy == userID

	return &CourseResponse{
		Course:    course,
		CanEdit:   canEdit,
		CanDelete: canEdit,
		CanEnroll: course.Status == models.CoursePublished && !canEdit,
	}
}

func (s *courseService) buildCourseListResponse(ctx context.Context, courses []*models.Course, total int64, filters repositories.CourseFilters, userID string) *CourseListResponse {
	responses := make([]*CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, s.buildCourseResponse(ctx, course, userID))
	}

	size := filters.Limit
	if size <= 0 {
		size = 20
	}
	page := (filters.Offset / size) + 1

	return &CourseListResponse{
		Courses: responses,
		Total:   total,
		Page:    page,
		Size:    size,
	}
}
