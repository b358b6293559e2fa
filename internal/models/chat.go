package models

import "time"

// ChatMessage is a course-scoped discussion message.
type ChatMessage struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	SenderID string `json:"sender_id" gorm:"not null;index;size:255"`
	Body     string `json:"body" gorm:"type:text;not null" validate:"required,max=2000"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Course Course `json:"course" gorm:"foreignKey:CourseID"`
	Sender User   `json:"sender" gorm:"foreignKey:SenderID"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
