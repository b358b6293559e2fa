package validator

import (
	"github.com/elimu-foundation/lms-service/internal/grading"
	"github.com/elimu-foundation/lms-service/internal/models"
)

// CourseCreateRequest represents the request structure for creating courses
type CourseCreateRequest struct {
	Title             string             `json:"title" validate:"required,course_title"`
	Description       *string            `json:"description" validate:"omitempty,max=2000"`
	Level             models.CourseLevel `json:"level" validate:"required,course_level"`
	Category          string             `json:"category" validate:"required,max=100"`
	MinPassPercentage *int               `json:"min_pass_percentage" validate:"omitempty,pass_percentage"`
}

// CourseUpdateRequest represents the request structure for updating courses
type CourseUpdateRequest struct {
	Title             *string             `json:"title" validate:"omitempty,course_title"`
	Description       *string             `json:"description" validate:"omitempty,max=2000"`
	Level             *models.CourseLevel `json:"level" validate:"omitempty,course_level"`
	Category          *string             `json:"category" validate:"omitempty,max=100"`
	MinPassPercentage *int                `json:"min_pass_percentage" validate:"omitempty,pass_percentage"`
}

// ModuleCreateRequest represents the request structure for adding a module to a course
type ModuleCreateRequest struct {
	Title     string                  `json:"title" validate:"required,course_title"`
	Content   string                  `json:"content" validate:"required"`
	Order     int                     `json:"order" validate:"required,min=1"`
	Questions []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// ModuleUpdateRequest represents the request structure for updating a module
type ModuleUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,course_title"`
	Content *string `json:"content" validate:"omitempty"`
	Order   *int    `json:"order" validate:"omitempty,min=1"`
}

// QuestionCreateRequest represents the request structure for creating module questions
type QuestionCreateRequest struct {
	Kind          grading.QuestionKind `json:"kind" validate:"required,question_kind"`
	Prompt        string               `json:"prompt" validate:"required,min=1,max=2000"`
	Options       []string             `json:"options" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer string               `json:"correct_answer" validate:"required,max=1000"`
	Points        int                  `json:"points" validate:"required,points_range"`
	Order         int                  `json:"order" validate:"omitempty,min=1"`
}

// QuestionUpdateRequest represents the request structure for updating module questions
type QuestionUpdateRequest struct {
	Kind          *grading.QuestionKind `json:"kind" validate:"omitempty,question_kind"`
	Prompt        *string               `json:"prompt" validate:"omitempty,min=1,max=2000"`
	Options       []string              `json:"options" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer *string               `json:"correct_answer" validate:"omitempty,max=1000"`
	Points        *int                  `json:"points" validate:"omitempty,points_range"`
	Order         *int                  `json:"order" validate:"omitempty,min=1"`
}

// SubmitAssessmentRequest carries the questions being answered together
// with the learner's answers, aligned by position. A nil entry in
// Answers means the question was left blank. An absent question list is
// rejected by the marker; an empty one grades to an empty result.
type SubmitAssessmentRequest struct {
	Questions []grading.Question `json:"questions" validate:"dive"`
	Answers   []*string          `json:"answers"`
}

// ContactCreateRequest represents an inbound contact form submission
type ContactCreateRequest struct {
	Name    string `json:"name" validate:"required,max=150"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ChatMessageRequest represents a message posted to a course chat room
type ChatMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}
