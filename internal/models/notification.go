package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationCoursePublished NotificationType = "course_published"
	NotificationEnrollment      NotificationType = "enrollment"
	NotificationModuleGraded    NotificationType = "module_graded"
	NotificationChatMessage     NotificationType = "chat_message"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type Notification struct {
	ID       uint                 `json:"id" gorm:"primaryKey"`
	UserID   string               `json:"user_id" gorm:"not null;index;size:255"`
	Type     NotificationType     `json:"type" gorm:"not null;size:50;index"`
	Title    string               `json:"title" gorm:"not null;size:200"`
	Message  string               `json:"message" gorm:"type:text"`
	Priority NotificationPriority `json:"priority" gorm:"default:normal;size:20"`

	// Structured payload (e.g. course/module ids) stored as JSONB.
	Data datatypes.JSON `json:"data" gorm:"type:jsonb"`

	Read   bool       `json:"read" gorm:"default:false;index"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}
