package services

import (
	"errors"
	"fmt"

	"github.com/elimu-foundation/lms-service/internal/validator"
)

// ===== SENTINEL ERRORS =====

var (
	// Generic
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrForbidden        = errors.New("access denied")
	ErrUnauthorized     = errors.New("unauthorized")

	// Course domain
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseNotPublished = errors.New("course is not published")
	ErrModuleNotFound     = errors.New("module not found")
	ErrQuestionNotFound   = errors.New("question not found")

	// Enrollment domain
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled")
	ErrNotEnrolled        = errors.New("student is not enrolled in this course")

	// Engagement domain
	ErrContactNotFound      = errors.New("contact message not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// User domain
	ErrUserNotFound = errors.New("user not found")
)

// ===== TYPED ERRORS =====

// ValidationErrors is re-exported so handlers can errors.As against the
// service package alone.
type ValidationErrors = validator.ValidationErrors

// NewValidationError builds a single-field validation error slice entry
func NewValidationError(field, message string, value interface{}) *validator.ValidationError {
	return &validator.ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}
}

// PermissionError carries the denied resource and action for the handler layer
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError signals a domain rule violation that is neither a
// validation failure nor a permission problem.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}
