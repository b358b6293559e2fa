package models

import (
	"time"

	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

type Enrollment struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	CourseID  uint             `json:"course_id" gorm:"not null;index;uniqueIndex:idx_course_student"`
	StudentID string           `json:"student_id" gorm:"not null;index;size:255;uniqueIndex:idx_course_student"`
	Status    EnrollmentStatus `json:"status" gorm:"default:active;index"`

	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Course  Course `json:"course" gorm:"foreignKey:CourseID"`
	Student User   `json:"student" gorm:"foreignKey:StudentID"`
}

// ModuleProgress records the outcome of a student's latest auto-marked
// submission for a module. One row per student per module; re-submissions
// update the row in place.
type ModuleProgress struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	CourseID  uint   `json:"course_id" gorm:"not null;index"`
	ModuleID  uint   `json:"module_id" gorm:"not null;index;uniqueIndex:idx_module_student"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255;uniqueIndex:idx_module_student"`

	// Scoring
	ScorePercent int  `json:"score_percent"`
	EarnedPoints int  `json:"earned_points"`
	TotalPoints  int  `json:"total_points"`
	Passed       bool `json:"passed"`
	Completed    bool `json:"completed"`

	Attempts     int        `json:"attempts" gorm:"default:0"`
	LastGradedAt *time.Time `json:"last_graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course  Course       `json:"course" gorm:"foreignKey:CourseID"`
	Module  CourseModule `json:"module" gorm:"foreignKey:ModuleID"`
	Student User         `json:"student" gorm:"foreignKey:StudentID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}
