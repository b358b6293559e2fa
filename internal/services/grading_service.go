package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/events"
	"github.com/elimu-foundation/lms-service/internal/grading"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

const passFeedback = "Congratulations! You passed the assessment. Your answers were verified automatically."

type gradingService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	publisher    events.EventPublisher
	notification NotificationService
}

func NewGradingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, notification NotificationService) GradingService {
	return &gradingService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    validator,
		publisher:    publisher,
		notification: notification,
	}
}

// SubmitModuleAssessment auto-marks a submission. The questions being
// answered travel in the request body and are aligned with answers by
// position; the stored module is only consulted for existence and
// course membership.
func (s *gradingService) SubmitModuleAssessment(ctx context.Context, courseID, moduleID uint, req *SubmitAssessmentRequest, studentID string) (*AssessmentResultResponse, error) {
	s.logger.Info("Grading module submission",
		"course_id", courseID,
		"module_id", moduleID,
		"student_id", studentID,
		"question_count", len(req.Questions))

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	module, err := s.repo.Module().GetByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module.CourseID != courseID {
		return nil, ErrModuleNotFound
	}

	enrolled, err := s.repo.Enrollment().HasActiveEnrollment(ctx, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	result, err := grading.Grade(req.Questions, req.Answers)
	if err != nil {
		if errors.Is(err, grading.ErrInvalidQuestions) {
			return nil, ValidationErrors{*NewValidationError("questions", "question list is required", nil)}
		}
		return nil, fmt.Errorf("grading failed: %w", err)
	}

	now := time.Now()
	progress := &models.ModuleProgress{
		CourseID:     courseID,
		ModuleID:     moduleID,
		StudentID:    studentID,
		ScorePercent: result.ScorePercent,
		EarnedPoints: result.EarnedPoints,
		TotalPoints:  result.TotalPoints,
		Passed:       result.Passed,
		Completed:    result.Passed,
		Attempts:     1,
		LastGradedAt: &now,
	}

	if err := s.repo.Progress().Upsert(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to store grading outcome: %w", err)
	}

	stored, err := s.repo.Progress().GetByModuleAndStudent(ctx, moduleID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload progress: %w", err)
	}

	if result.Passed {
		if err := s.maybeCompleteEnrollment(ctx, courseID, studentID); err != nil {
			s.logger.Error("Failed to update enrollment completion", "error", err, "course_id", courseID)
		}
	}

	s.publishGraded(ctx, stored)

	if err := s.notification.NotifyModuleGraded(ctx, stored); err != nil {
		s.logger.Error("Failed to send grading notification", "error", err, "module_id", moduleID)
	}

	return &AssessmentResultResponse{
		CourseID:     courseID,
		ModuleID:     moduleID,
		ScorePercent: result.ScorePercent,
		Passed:       result.Passed,
		EarnedPoints: result.EarnedPoints,
		TotalPoints:  result.TotalPoints,
		Results:      result.Results,
		Feedback:     buildFeedback(result),
		Attempts:     stored.Attempts,
		GradedAt:     now,
	}, nil
}

// EvaluateSubmission runs the marker without touching storage
func (s *gradingService) EvaluateSubmission(questions []grading.Question, answers []*string) (*grading.GradeResult, error) {
	return grading.Grade(questions, answers)
}

func (s *gradingService) GetResult(ctx context.Context, moduleID uint, studentID string) (*models.ModuleProgress, error) {
	progress, err := s.repo.Progress().GetByModuleAndStudent(ctx, moduleID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return progress, nil
}

// ===== HELPERS =====

// buildFeedback renders the learner-facing message for a grade outcome
func buildFeedback(result *grading.GradeResult) string {
	if result.Passed {
		return passFeedback
	}
	return fmt.Sprintf("You scored %d%%. A score of at least %d%% is required to pass. Please review the module and try again.",
		result.ScorePercent, grading.PassingPercent)
}

// maybeCompleteEnrollment marks the enrollment completed once every
// module in the course has a passing submission.
func (s *gradingService) maybeCompleteEnrollment(ctx context.Context, courseID uint, studentID string) error {
	totalModules, err := s.repo.Module().CountByCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("failed to count modules: %w", err)
	}

	completed, err := s.repo.Progress().CountCompleted(ctx, courseID, studentID)
	if err != nil {
		return fmt.Errorf("failed to count completed modules: %w", err)
	}

	if totalModules == 0 || completed < totalModules {
		return nil
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, courseID, studentID)
	if err != nil {
		return fmt.Errorf("failed to get enrollment: %w", err)
	}
	if enrollment.Status != models.EnrollmentActive {
		// Already completed, or withdrawn; never promote either.
		return nil
	}

	now := time.Now()
	enrollment.Status = models.EnrollmentCompleted
	enrollment.CompletedAt = &now
	if err := s.repo.Enrollment().Update(ctx, enrollment); err != nil {
		return fmt.Errorf("failed to complete enrollment: %w", err)
	}

	s.logger.Info("Course completed", "course_id", courseID, "student_id", studentID)
	return nil
}

func (s *gradingService) publishGraded(ctx context.Context, progress *models.ModuleProgress) {
	event := events.NewEvent(events.EventModuleGraded, map[string]interface{}{
		"course_id":     progress.CourseID,
		"module_id":     progress.ModuleID,
		"student_id":    progress.StudentID,
		"score_percent": progress.ScorePercent,
		"passed":        progress.Passed,
		"attempts":      progress.Attempts,
	})

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish grading event", "error", err, "module_id", progress.ModuleID)
	}
}
