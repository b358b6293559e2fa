package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/cache"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create creates a new course and invalidates list caches
func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("creator:%s:*", course.CreatedBy))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.db.WithContext(ctx).First(&dbCourse, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &dbCourse, nil
	})

	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithModules retrieves a course with its modules ordered by position
func (c *CoursePostgreSQL) GetByIDWithModules(ctx context.Context, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.db.WithContext(ctx).
			Preload("Modules", func(db *gorm.DB) *gorm.DB {
				return db.Order("course_modules.order ASC")
			}).
			First(&dbCourse, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get course details: %w", err)
		}
		return &dbCourse, nil
	})

	if err != nil {
		return nil, err
	}

	return &course, nil
}

// Update saves course changes and invalidates related caches
func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Save(course).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, course.CreatedBy)

	return nil
}

// UpdateStatus changes only a course's status
func (c *CoursePostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.CourseStatus) error {
	result := c.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update course status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, c.cacheManager.Course, fmt.Sprintf("id:%d", id), fmt.Sprintf("details:%d", id))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// Delete soft-deletes a course
func (c *CoursePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, c.cacheManager.Course, fmt.Sprintf("id:%d", id), fmt.Sprintf("details:%d", id))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// List retrieves courses with filters and total count
func (c *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := c.helpers.ApplyCourseFilters(c.db.WithContext(ctx).Model(&models.Course{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

// GetByCreator retrieves courses created by a specific user
func (c *CoursePostgreSQL) GetByCreator(ctx context.Context, creatorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.CreatedBy = &creatorID
	return c.List(ctx, filters)
}

// GetStats computes aggregate statistics for a course
func (c *CoursePostgreSQL) GetStats(ctx context.Context, id uint) (*repositories.CourseStats, error) {
	stats := &repositories.CourseStats{}

	var moduleCount int64
	if err := c.db.WithContext(ctx).
		Model(&models.CourseModule{}).
		Where("course_id = ?", id).
		Count(&moduleCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count modules: %w", err)
	}
	stats.ModuleCount = int(moduleCount)

	var enrollmentCount int64
	if err := c.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", id).
		Count(&enrollmentCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	stats.EnrollmentCount = int(enrollmentCount)

	var completedCount int64
	if err := c.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND status = ?", id, models.EnrollmentCompleted).
		Count(&completedCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed enrollments: %w", err)
	}
	if enrollmentCount > 0 {
		stats.CompletionRate = float64(completedCount) / float64(enrollmentCount)
	}

	var avgScore *float64
	if err := c.db.WithContext(ctx).
		Model(&models.ModuleProgress{}).
		Select("AVG(score_percent)").
		Where("course_id = ?", id).
		Scan(&avgScore).Error; err != nil {
		return nil, fmt.Errorf("failed to compute average score: %w", err)
	}
	if avgScore != nil {
		stats.AverageScore = *avgScore
	}

	return stats, nil
}

// ExistsByID checks whether a course exists, with a short-lived cache
func (c *CoursePostgreSQL) ExistsByID(ctx context.Context, id uint) (bool, error) {
	cacheKey := fmt.Sprintf("course:%d", id)
	var exists bool

	err := c.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		err := c.db.WithContext(ctx).
			Model(&models.Course{}).
			Where("id = ?", id).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check course existence: %w", err)
		}
		return count > 0, nil
	})

	return exists, err
}
