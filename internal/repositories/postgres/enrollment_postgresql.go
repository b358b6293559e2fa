package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elimu-foundation/lms-service/internal/cache"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if err := e.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := e.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByCourseAndStudent(ctx context.Context, courseID uint, studentID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, enrollment *models.Enrollment) error {
	if err := e.db.WithContext(ctx).Save(enrollment).Error; err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	return nil
}

func (e *EnrollmentPostgreSQL) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	var enrollments []*models.Enrollment
	var total int64

	query := e.helpers.ApplyEnrollmentFilters(e.db.WithContext(ctx).Model(&models.Enrollment{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, "enrolled_at", "desc", filters.Limit, filters.Offset)
	if err := query.Preload("Course").Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return enrollments, total, nil
}

func (e *EnrollmentPostgreSQL) GetByStudent(ctx context.Context, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	filters.StudentID = &studentID
	return e.List(ctx, filters)
}

func (e *EnrollmentPostgreSQL) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (e *EnrollmentPostgreSQL) HasActiveEnrollment(ctx context.Context, courseID uint, studentID string) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ? AND status <> ?", courseID, studentID, models.EnrollmentWithdrawn).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment existence: %w", err)
	}
	return count > 0, nil
}

// ProgressPostgreSQL persists per-module grading outcomes.
type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Upsert inserts or updates the single progress row per student per
// module. Attempts is incremented on conflict rather than overwritten.
func (p *ProgressPostgreSQL) Upsert(ctx context.Context, progress *models.ModuleProgress) error {
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "module_id"}, {Name: "student_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score_percent":  progress.ScorePercent,
				"earned_points":  progress.EarnedPoints,
				"total_points":   progress.TotalPoints,
				"passed":         progress.Passed,
				"completed":      progress.Completed,
				"last_graded_at": progress.LastGradedAt,
				"attempts":       gorm.Expr("module_progress.attempts + 1"),
				"updated_at":     gorm.Expr("NOW()"),
			}),
		}).
		Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to upsert module progress: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, p.cacheManager.Progress,
		fmt.Sprintf("course:%d:student:%s*", progress.CourseID, progress.StudentID))

	return nil
}

func (p *ProgressPostgreSQL) GetByModuleAndStudent(ctx context.Context, moduleID uint, studentID string) (*models.ModuleProgress, error) {
	var progress models.ModuleProgress
	err := p.db.WithContext(ctx).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		First(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get module progress: %w", err)
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) GetByCourseAndStudent(ctx context.Context, courseID uint, studentID string) ([]*models.ModuleProgress, error) {
	var progress []*models.ModuleProgress
	err := p.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Order("module_id ASC").
		Find(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	return progress, nil
}

// GetCourseProgress summarizes a student's standing in a course, cached briefly
func (p *ProgressPostgreSQL) GetCourseProgress(ctx context.Context, courseID uint, studentID string) (*repositories.StudentCourseProgress, error) {
	cacheKey := fmt.Sprintf("course:%d:student:%s:summary", courseID, studentID)
	var summary repositories.StudentCourseProgress

	err := p.cacheManager.Progress.CacheOrExecute(ctx, cacheKey, &summary, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
		result := repositories.StudentCourseProgress{CourseID: courseID}

		var totalModules int64
		if err := p.db.WithContext(ctx).
			Model(&models.CourseModule{}).
			Where("course_id = ?", courseID).
			Count(&totalModules).Error; err != nil {
			return nil, fmt.Errorf("failed to count modules: %w", err)
		}
		result.TotalModules = int(totalModules)

		var completed int64
		if err := p.db.WithContext(ctx).
			Model(&models.ModuleProgress{}).
			Where("course_id = ? AND student_id = ? AND completed = true", courseID, studentID).
			Count(&completed).Error; err != nil {
			return nil, fmt.Errorf("failed to count completed modules: %w", err)
		}
		result.CompletedModules = int(completed)

		var avgScore *float64
		if err := p.db.WithContext(ctx).
			Model(&models.ModuleProgress{}).
			Select("AVG(score_percent)").
			Where("course_id = ? AND student_id = ?", courseID, studentID).
			Scan(&avgScore).Error; err != nil {
			return nil, fmt.Errorf("failed to compute average score: %w", err)
		}
		if avgScore != nil {
			result.AverageScore = *avgScore
		}

		return &result, nil
	})

	if err != nil {
		return nil, err
	}

	return &summary, nil
}

func (p *ProgressPostgreSQL) CountCompleted(ctx context.Context, courseID uint, studentID string) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&models.ModuleProgress{}).
		Where("course_id = ? AND student_id = ? AND completed = true", courseID, studentID).
		Count(&count).Error
	return count, err
}
