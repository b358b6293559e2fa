package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/repositories"
)

// SharedHelpers contains common database query building operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyCourseFilters applies common filters to course queries
func (h *SharedHelpers) ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Query != "" {
		like := fmt.Sprintf("%%%s%%", filters.Query)
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	return query
}

// ApplyEnrollmentFilters applies common filters to enrollment queries
func (h *SharedHelpers) ApplyEnrollmentFilters(query *gorm.DB, filters repositories.EnrollmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("enrolled_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("enrolled_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with a column
// whitelist so caller-supplied sort fields cannot inject SQL.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"title":       true,
		"enrolled_at": true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return query.Limit(limit).Offset(offset)
}
