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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.ModuleQuestion) error {
	if err := q.db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	q.invalidateModule(ctx, question.ModuleID)

	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.ModuleQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	if err := q.db.WithContext(ctx).Create(questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	q.invalidateModule(ctx, questions[0].ModuleID)

	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ModuleQuestion, error) {
	var question models.ModuleQuestion
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, question *models.ModuleQuestion) error {
	if err := q.db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	q.invalidateModule(ctx, question.ModuleID)

	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	question, err := q.GetByID(ctx, id)
	if err != nil {
		return err
	}

	result := q.db.WithContext(ctx).Delete(&models.ModuleQuestion{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	q.invalidateModule(ctx, question.ModuleID)

	return nil
}

func (q *QuestionPostgreSQL) GetByModule(ctx context.Context, moduleID uint) ([]*models.ModuleQuestion, error) {
	var questions []*models.ModuleQuestion
	err := q.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order(`"order" ASC`).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get module questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CountByModule(ctx context.Context, moduleID uint) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.ModuleQuestion{}).
		Where("module_id = ?", moduleID).
		Count(&count).Error
	return count, err
}

// invalidateModule drops the module detail cache that embeds questions
func (q *QuestionPostgreSQL) invalidateModule(ctx context.Context, moduleID uint) {
	cache.SafeDelete(ctx, q.cacheManager.Module,
		fmt.Sprintf("id:%d", moduleID),
		fmt.Sprintf("details:%d", moduleID))
}
