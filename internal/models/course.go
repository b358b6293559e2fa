package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/grading"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "Draft"
	CoursePublished CourseStatus = "Published"
	CourseArchived  CourseStatus = "Archived"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type Course struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Category    string       `json:"category" gorm:"size:100;index"`
	Level       CourseLevel  `json:"level" gorm:"default:beginner" validate:"omitempty,oneof=beginner intermediate advanced"`
	Status      CourseStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Published Archived"`

	// Advisory only: auto-marking applies the fixed grading.PassingPercent
	// threshold and does not read this field.
	MinPassPercentage int `json:"min_pass_percentage" gorm:"default:70" validate:"omitempty,min=0,max=100"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Modules     []CourseModule `json:"modules" gorm:"foreignKey:CourseID"`
	Enrollments []Enrollment   `json:"enrollments,omitempty" gorm:"foreignKey:CourseID"`
	Creator     User           `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	ModuleCount     int `json:"module_count" gorm:"-"`
	EnrollmentCount int `json:"enrollment_count" gorm:"-"`
}

type CourseModule struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	Title    string `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Content  string `json:"content" gorm:"type:text"`
	Order    int    `json:"order" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course    Course           `json:"course" gorm:"foreignKey:CourseID"`
	Questions []ModuleQuestion `json:"questions" gorm:"foreignKey:ModuleID"`
}

// ModuleQuestion is the persisted authoring-side question. The 1-10 points
// bound is enforced at authoring time; grading itself accepts whatever
// weight is stored.
type ModuleQuestion struct {
	ID       uint                 `json:"id" gorm:"primaryKey"`
	ModuleID uint                 `json:"module_id" gorm:"not null;index"`
	Kind     grading.QuestionKind `json:"kind" gorm:"not null;size:20;index" validate:"required"`
	Prompt   string               `json:"prompt" gorm:"type:text;not null" validate:"required,max=2000"`

	// Options stored as JSONB ([]string); only populated for multiple-choice.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`

	CorrectAnswer string `json:"correct_answer" gorm:"not null;type:text" validate:"required"`
	Points        int    `json:"points" gorm:"default:1" validate:"min=1,max=10"`
	Order         int    `json:"order" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Module CourseModule `json:"module" gorm:"foreignKey:ModuleID"`
}

func (Course) TableName() string {
	return "courses"
}

func (CourseModule) TableName() string {
	return "course_modules"
}

func (ModuleQuestion) TableName() string {
	return "module_questions"
}
