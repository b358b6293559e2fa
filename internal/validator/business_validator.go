package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/elimu-foundation/lms-service/internal/grading"
	"github.com/elimu-foundation/lms-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateModuleCreate validates module creation business rules
func (bv *BusinessValidator) ValidateModuleCreate(req *ModuleCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	for i, q := range req.Questions {
		errors = append(errors, bv.validateQuestionRules(&q, i)...)
	}

	return errors
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateQuestionRules(req, -1)...)

	return errors
}

// ValidateStatusTransition validates course status transitions
func (bv *BusinessValidator) ValidateStatusTransition(currentStatus, newStatus models.CourseStatus, moduleCount int) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.CourseStatus][]models.CourseStatus{
		models.CourseDraft:     {models.CoursePublished, models.CourseArchived},
		models.CoursePublished: {models.CourseArchived},
		models.CourseArchived:  {models.CoursePublished},
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status transition",
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	if newStatus == models.CoursePublished && moduleCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "modules",
			Message: "course must have at least one module before publishing",
			Value:   moduleCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// validateQuestionRules enforces per-kind constraints that struct tags
// cannot express.
func (bv *BusinessValidator) validateQuestionRules(req *QuestionCreateRequest, index int) ValidationErrors {
	var errors ValidationErrors

	field := "question"
	if index >= 0 {
		field = "questions"
	}

	switch req.Kind {
	case grading.MultipleChoice:
		if len(req.Options) < 2 {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "multiple-choice questions need at least two options",
				Value:   len(req.Options),
				Rule:    "business_logic",
			})
		}
	case grading.TrueFalse:
		answer := strings.ToLower(strings.TrimSpace(req.CorrectAnswer))
		if answer != "true" && answer != "false" {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "true-false questions must have \"true\" or \"false\" as the correct answer",
				Value:   req.CorrectAnswer,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-200 characters)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Points range validation
	bv.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 10
	})

	// Pass percentage validation (0-100)
	bv.validate.RegisterValidation("pass_percentage", func(fl validator.FieldLevel) bool {
		pct := fl.Field().Int()
		return pct >= 0 && pct <= 100
	})

	// Question kind validation
	bv.validate.RegisterValidation("question_kind", func(fl validator.FieldLevel) bool {
		kind := grading.QuestionKind(fl.Field().String())
		switch kind {
		case grading.MultipleChoice, grading.TrueFalse, grading.ShortAnswer:
			return true
		}
		return false
	})

	// Course level validation
	bv.validate.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
		level := models.CourseLevel(fl.Field().String())
		switch level {
		case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
			return true
		}
		return false
	})
}
