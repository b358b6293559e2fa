package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type moduleService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewModuleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ModuleService {
	return &moduleService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *moduleService) Create(ctx context.Context, courseID uint, req *CreateModuleRequest, userID string) (*ModuleResponse, error) {
	s.logger.Info("Creating module", "course_id", courseID, "user_id", userID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateModuleCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if err := s.checkCourseOwnership(ctx, courseID, userID, "add module"); err != nil {
		return nil, err
	}

	module := &models.CourseModule{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
		Order:    req.Order,
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Module().Create(ctx, module); err != nil {
			return fmt.Errorf("failed to create module: %w", err)
		}

		if len(req.Questions) > 0 {
			questions := make([]*models.ModuleQuestion, 0, len(req.Questions))
			for i, q := range req.Questions {
				question, err := buildModuleQuestion(module.ID, i+1, &q)
				if err != nil {
					return err
				}
				questions = append(questions, question)
			}
			if err := txRepo.Question().CreateBatch(ctx, questions); err != nil {
				return fmt.Errorf("failed to create module questions: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ModuleResponse{CourseModule: module, QuestionCount: len(req.Questions)}, nil
}

func (s *moduleService) GetByID(ctx context.Context, id uint, userID string) (*ModuleResponse, error) {
	module, err := s.repo.Module().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	count, err := s.repo.Question().CountByModule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	return &ModuleResponse{CourseModule: module, QuestionCount: int(count)}, nil
}

func (s *moduleService) GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*ModuleResponse, error) {
	module, err := s.repo.Module().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	return &ModuleResponse{CourseModule: module, QuestionCount: len(module.Questions)}, nil
}

func (s *moduleService) Update(ctx context.Context, id uint, req *UpdateModuleRequest, userID string) (*ModuleResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	module, err := s.getManagedModule(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Content != nil {
		module.Content = *req.Content
	}
	if req.Order != nil {
		module.Order = *req.Order
	}

	if err := s.repo.Module().Update(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	count, err := s.repo.Question().CountByModule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	return &ModuleResponse{CourseModule: module, QuestionCount: int(count)}, nil
}

func (s *moduleService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.getManagedModule(ctx, id, userID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Module().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}

	s.logger.Info("Module deleted", "module_id", id, "user_id", userID)
	return nil
}

// ===== COURSE SCOPED OPERATIONS =====

func (s *moduleService) GetByCourse(ctx context.Context, courseID uint, userID string) ([]*ModuleResponse, error) {
	exists, err := s.repo.Course().ExistsByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !exists {
		return nil, ErrCourseNotFound
	}

	modules, err := s.repo.Module().GetByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get modules: %w", err)
	}

	responses := make([]*ModuleResponse, 0, len(modules))
	for _, module := range modules {
		count, err := s.repo.Question().CountByModule(ctx, module.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		responses = append(responses, &ModuleResponse{CourseModule: module, QuestionCount: int(count)})
	}

	return responses, nil
}

func (s *moduleService) Reorder(ctx context.Context, courseID uint, req *ReorderModulesRequest, userID string) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	if err := s.checkCourseOwnership(ctx, courseID, userID, "reorder modules"); err != nil {
		return err
	}

	if err := s.repo.Module().Reorder(ctx, courseID, req.ModuleIDs); err != nil {
		return fmt.Errorf("failed to reorder modules: %w", err)
	}

	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *moduleService) AddQuestion(ctx context.Context, moduleID uint, req *CreateQuestionRequest, userID string) (*models.ModuleQuestion, error) {
	if errs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	module, err := s.getManagedModule(ctx, moduleID, userID, "add question")
	if err != nil {
		return nil, err
	}

	order := req.Order
	if order == 0 {
		count, err := s.repo.Question().CountByModule(ctx, moduleID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		order = int(count) + 1
	}

	question, err := buildModuleQuestion(module.ID, order, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	return question, nil
}

func (s *moduleService) UpdateQuestion(ctx context.Context, questionID uint, req *UpdateQuestionRequest, userID string) (*models.ModuleQuestion, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if _, err := s.getManagedModule(ctx, question.ModuleID, userID, "update question"); err != nil {
		return nil, err
	}

	if req.Kind != nil {
		question.Kind = *req.Kind
	}
	if req.Prompt != nil {
		question.Prompt = *req.Prompt
	}
	if req.Options != nil {
		data, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		question.Options = datatypes.JSON(data)
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Order != nil {
		question.Order = *req.Order
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return question, nil
}

func (s *moduleService) RemoveQuestion(ctx context.Context, questionID uint, userID string) error {
	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if _, err := s.getManagedModule(ctx, question.ModuleID, userID, "remove question"); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	return nil
}

func (s *moduleService) GetQuestions(ctx context.Context, moduleID uint, userID string) ([]*models.ModuleQuestion, error) {
	questions, err := s.repo.Question().GetByModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// ===== HELPERS =====

func (s *moduleService) checkCourseOwnership(ctx context.Context, courseID uint, userID, action string) error {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	if course.CreatedBy != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("permission check failed: %w", err)
		}
		if !isAdmin {
			return NewPermissionError(userID, courseID, "course", action, "not the course owner")
		}
	}
	return nil
}

func (s *moduleService) getManagedModule(ctx context.Context, id uint, userID, action string) (*models.CourseModule, error) {
	module, err := s.repo.Module().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	if err := s.checkCourseOwnership(ctx, module.CourseID, userID, action); err != nil {
		return nil, err
	}
	return module, nil
}

// buildModuleQuestion converts an authoring request into the persisted form
func buildModuleQuestion(moduleID uint, order int, req *CreateQuestionRequest) (*models.ModuleQuestion, error) {
	question := &models.ModuleQuestion{
		ModuleID:      moduleID,
		Kind:          req.Kind,
		Prompt:        req.Prompt,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		Order:         order,
	}
	if req.Order != 0 {
		question.Order = req.Order
	}

	if len(req.Options) > 0 {
		data, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		question.Options = datatypes.JSON(data)
	}

	return question, nil
}
