package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
)

// ContactPostgreSQL stores contact form submissions.
type ContactPostgreSQL struct {
	db *gorm.DB
}

func NewContactPostgreSQL(db *gorm.DB) repositories.ContactRepository {
	return &ContactPostgreSQL{db: db}
}

func (c *ContactPostgreSQL) Create(ctx context.Context, msg *models.ContactMessage) error {
	if err := c.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

func (c *ContactPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := c.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return &msg, nil
}

func (c *ContactPostgreSQL) List(ctx context.Context, resolved *bool, limit, offset int) ([]*models.ContactMessage, int64, error) {
	var messages []*models.ContactMessage
	var total int64

	query := c.db.WithContext(ctx).Model(&models.ContactMessage{})
	if resolved != nil {
		query = query.Where("resolved = ?", *resolved)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contact messages: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contact messages: %w", err)
	}

	return messages, total, nil
}

func (c *ContactPostgreSQL) MarkResolved(ctx context.Context, id uint, resolvedBy string) error {
	now := time.Now()
	result := c.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to resolve contact message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ChatPostgreSQL stores course chat messages.
type ChatPostgreSQL struct {
	db *gorm.DB
}

func NewChatPostgreSQL(db *gorm.DB) repositories.ChatRepository {
	return &ChatPostgreSQL{db: db}
}

func (c *ChatPostgreSQL) Create(ctx context.Context, msg *models.ChatMessage) error {
	if err := c.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// GetByCourse returns messages newest-first, optionally before a cursor
func (c *ChatPostgreSQL) GetByCourse(ctx context.Context, courseID uint, filters repositories.ChatFilters) ([]*models.ChatMessage, error) {
	query := c.db.WithContext(ctx).Where("course_id = ?", courseID)
	if filters.Before != nil {
		query = query.Where("created_at < ?", *filters.Before)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []*models.ChatMessage
	err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	return messages, nil
}

// NotificationPostgreSQL stores per-user notifications.
type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, notification *models.Notification) error {
	if err := n.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := n.db.WithContext(ctx).CreateInBatches(notifications, 100).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) GetByUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	query := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID)

	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Unread {
		query = query.Where("read = false")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var notifications []*models.Notification
	err := query.Order("created_at DESC").Limit(limit).Offset(filters.Offset).Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, id uint, userID string) error {
	now := time.Now()
	result := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"read": true, "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (n *NotificationPostgreSQL) MarkAllRead(ctx context.Context, userID string) error {
	now := time.Now()
	err := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Count(&count).Error
	return count, err
}
