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

type ModulePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewModulePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (m *ModulePostgreSQL) Create(ctx context.Context, module *models.CourseModule) error {
	if err := m.db.WithContext(ctx).Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	cache.InvalidateModuleCache(ctx, m.cacheManager, module.ID, module.CourseID)

	return nil
}

func (m *ModulePostgreSQL) GetByID(ctx context.Context, id uint) (*models.CourseModule, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var module models.CourseModule

	err := m.cacheManager.Module.CacheOrExecute(ctx, cacheKey, &module, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		var dbModule models.CourseModule
		err := m.db.WithContext(ctx).First(&dbModule, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get module: %w", err)
		}
		return &dbModule, nil
	})

	if err != nil {
		return nil, err
	}

	return &module, nil
}

// GetByIDWithQuestions loads a module with its questions ordered by position
func (m *ModulePostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.CourseModule, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var module models.CourseModule

	err := m.cacheManager.Module.CacheOrExecute(ctx, cacheKey, &module, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		var dbModule models.CourseModule
		err := m.db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("module_questions.order ASC")
			}).
			First(&dbModule, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get module with questions: %w", err)
		}
		return &dbModule, nil
	})

	if err != nil {
		return nil, err
	}

	return &module, nil
}

func (m *ModulePostgreSQL) Update(ctx context.Context, module *models.CourseModule) error {
	if err := m.db.WithContext(ctx).Save(module).Error; err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	cache.InvalidateModuleCache(ctx, m.cacheManager, module.ID, module.CourseID)

	return nil
}

func (m *ModulePostgreSQL) Delete(ctx context.Context, id uint) error {
	module, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}

	result := m.db.WithContext(ctx).Delete(&models.CourseModule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete module: %w", result.Error)
	}
	cache.InvalidateModuleCache(ctx, m.cacheManager, id, module.CourseID)

	return nil
}

func (m *ModulePostgreSQL) GetByCourse(ctx context.Context, courseID uint) ([]*models.CourseModule, error) {
	var modules []*models.CourseModule
	err := m.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order(`"order" ASC`).
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course modules: %w", err)
	}
	return modules, nil
}

func (m *ModulePostgreSQL) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&models.CourseModule{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// Reorder rewrites module positions in the given order
func (m *ModulePostgreSQL) Reorder(ctx context.Context, courseID uint, moduleIDs []uint) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, moduleID := range moduleIDs {
			result := tx.Model(&models.CourseModule{}).
				Where("id = ? AND course_id = ?", moduleID, courseID).
				Update("order", i+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("module %d not found in course %d", moduleID, courseID)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reorder modules: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, m.cacheManager.Module, fmt.Sprintf("course:%d:*", courseID))
	cache.SafeDelete(ctx, m.cacheManager.Course, fmt.Sprintf("details:%d", courseID))

	return nil
}
