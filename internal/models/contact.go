package models

import "time"

// ContactMessage is an inbox entry from the public contact form.
type ContactMessage struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Email   string `json:"email" gorm:"not null;size:255" validate:"required,email"`
	Subject string `json:"subject" gorm:"size:200" validate:"omitempty,max=200"`
	Message string `json:"message" gorm:"type:text;not null" validate:"required,max=5000"`

	Resolved   bool       `json:"resolved" gorm:"default:false;index"`
	ResolvedBy *string    `json:"resolved_by" gorm:"size:255"`
	ResolvedAt *time.Time `json:"resolved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
