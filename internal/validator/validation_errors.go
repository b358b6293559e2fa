package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts go-playground validator errors into our
// error slice with readable messages.
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	for _, fe := range fieldErrs {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: messageForTag(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}

	return errors
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "course_title":
		return "must be between 1 and 200 characters"
	case "points_range":
		return "must be between 1 and 10"
	case "pass_percentage":
		return "must be between 0 and 100"
	case "question_kind":
		return "must be one of multiple-choice, true-false, short-answer"
	case "course_level":
		return "must be one of beginner, intermediate, advanced"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
