package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type chatService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	notification NotificationService
}

func NewChatService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, notification NotificationService) ChatService {
	return &chatService{
		repo:         repo,
		logger:       logger,
		validator:    validator,
		notification: notification,
	}
}

func (s *chatService) PostMessage(ctx context.Context, courseID uint, req *ChatMessageRequest, senderID string) (*models.ChatMessage, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if err := s.checkRoomAccess(ctx, courseID, senderID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		CourseID: courseID,
		SenderID: senderID,
		Body:     req.Body,
	}

	if err := s.repo.Chat().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}

	// Notify the course owner; fan-out to all students happens through
	// the event bus consumer, not synchronously here.
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err == nil {
		if err := s.notification.NotifyChatMessage(ctx, msg, []string{course.CreatedBy}); err != nil {
			s.logger.Error("Failed to send chat notification", "error", err, "course_id", courseID)
		}
	}

	return msg, nil
}

func (s *chatService) GetHistory(ctx context.Context, courseID uint, filters repositories.ChatFilters, userID string) ([]*models.ChatMessage, error) {
	if err := s.checkRoomAccess(ctx, courseID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.Chat().GetByCourse(ctx, courseID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	return messages, nil
}

// checkRoomAccess requires enrollment, ownership or the admin role
func (s *chatService) checkRoomAccess(ctx context.Context, courseID uint, userID string) error {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	if course.CreatedBy == userID {
		return nil
	}

	enrolled, err := s.repo.Enrollment().HasActiveEnrollment(ctx, courseID, userID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil
	}

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, courseID, "chat", "access", "not enrolled in this course")
	}
	return nil
}
