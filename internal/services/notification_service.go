package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/elimu-foundation/lms-service/internal/events"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
)

type notificationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
}

func NewNotificationService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher) NotificationService {
	return &notificationService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
	}
}

// NotifyCoursePublished broadcasts the publish event and records a
// confirmation for the course creator. Per-student notifications happen
// on enrollment, not here.
func (s *notificationService) NotifyCoursePublished(ctx context.Context, course *models.Course) error {
	event := events.NewEvent(events.EventCoursePublished, map[string]interface{}{
		"course_id": course.ID,
		"title":     course.Title,
		"level":     course.Level,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish course published event: %w", err)
	}

	notification := &models.Notification{
		UserID:   course.CreatedBy,
		Type:     models.NotificationCoursePublished,
		Title:    "Course published",
		Message:  fmt.Sprintf("Your course %q is now live.", course.Title),
		Priority: models.PriorityNormal,
		Data:     mustJSON(map[string]interface{}{"course_id": course.ID}),
	}
	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	return nil
}

func (s *notificationService) NotifyEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	event := events.NewEvent(events.EventEnrollment, map[string]interface{}{
		"course_id":  enrollment.CourseID,
		"student_id": enrollment.StudentID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish enrollment event: %w", err)
	}

	notification := &models.Notification{
		UserID:   enrollment.StudentID,
		Type:     models.NotificationEnrollment,
		Title:    "Enrollment confirmed",
		Message:  "You are enrolled. Work through the modules in order and pass each assessment to complete the course.",
		Priority: models.PriorityNormal,
		Data:     mustJSON(map[string]interface{}{"course_id": enrollment.CourseID}),
	}
	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	return nil
}

func (s *notificationService) NotifyModuleGraded(ctx context.Context, progress *models.ModuleProgress) error {
	title := "Assessment result"
	message := fmt.Sprintf("You scored %d%% on this module.", progress.ScorePercent)
	priority := models.PriorityNormal
	if progress.Passed {
		message = fmt.Sprintf("You passed with %d%%. The module is complete.", progress.ScorePercent)
	} else {
		priority = models.PriorityHigh
	}

	notification := &models.Notification{
		UserID:   progress.StudentID,
		Type:     models.NotificationModuleGraded,
		Title:    title,
		Message:  message,
		Priority: priority,
		Data: mustJSON(map[string]interface{}{
			"course_id":     progress.CourseID,
			"module_id":     progress.ModuleID,
			"score_percent": progress.ScorePercent,
			"passed":        progress.Passed,
		}),
	}
	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	return nil
}

func (s *notificationService) NotifyChatMessage(ctx context.Context, msg *models.ChatMessage, recipientIDs []string) error {
	event := events.NewEvent(events.EventChatMessage, map[string]interface{}{
		"course_id": msg.CourseID,
		"sender_id": msg.SenderID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish chat event", "error", err, "course_id", msg.CourseID)
	}

	notifications := make([]*models.Notification, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		if recipientID == msg.SenderID {
			continue
		}
		notifications = append(notifications, &models.Notification{
			UserID:   recipientID,
			Type:     models.NotificationChatMessage,
			Title:    "New course message",
			Message:  truncate(msg.Body, 120),
			Priority: models.PriorityLow,
			Data:     mustJSON(map[string]interface{}{"course_id": msg.CourseID}),
		})
	}

	if err := s.repo.Notification().CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to store chat notifications: %w", err)
	}
	return nil
}

func (s *notificationService) GetByUser(ctx context.Context, userID string, filters repositories.NotificationFilters) (*NotificationListResponse, error) {
	notifications, total, err := s.repo.Notification().GetByUser(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	unread, err := s.repo.Notification().CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &NotificationListResponse{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint, userID string) error {
	if err := s.repo.Notification().MarkRead(ctx, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.Notification().MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// ===== HELPERS =====

func mustJSON(v map[string]interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
