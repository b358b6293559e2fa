package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elimu-foundation/lms-service/internal/events"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type contactService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewContactService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ContactService {
	return &contactService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Submit accepts a public contact form submission, no auth required
func (s *contactService) Submit(ctx context.Context, req *CreateContactRequest) (*models.ContactMessage, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	if err := s.repo.Contact().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}

	event := events.NewEvent(events.EventContactReceived, map[string]interface{}{
		"contact_id": msg.ID,
		"subject":    msg.Subject,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish contact event", "error", err, "contact_id", msg.ID)
	}

	s.logger.Info("Contact message received", "contact_id", msg.ID, "subject", msg.Subject)
	return msg, nil
}

func (s *contactService) List(ctx context.Context, resolved *bool, limit, offset int, userID string) ([]*models.ContactMessage, int64, error) {
	if err := s.requireAdmin(ctx, userID, "list"); err != nil {
		return nil, 0, err
	}

	messages, total, err := s.repo.Contact().List(ctx, resolved, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return messages, total, nil
}

func (s *contactService) GetByID(ctx context.Context, id uint, userID string) (*models.ContactMessage, error) {
	if err := s.requireAdmin(ctx, userID, "view"); err != nil {
		return nil, err
	}

	msg, err := s.repo.Contact().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return msg, nil
}

func (s *contactService) Resolve(ctx context.Context, id uint, userID string) error {
	if err := s.requireAdmin(ctx, userID, "resolve"); err != nil {
		return err
	}

	if err := s.repo.Contact().MarkResolved(ctx, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrContactNotFound
		}
		return fmt.Errorf("failed to resolve contact message: %w", err)
	}

	s.logger.Info("Contact message resolved", "contact_id", id, "user_id", userID)
	return nil
}

func (s *contactService) requireAdmin(ctx context.Context, userID, action string) error {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, 0, "contact", action, "admin role required")
	}
	return nil
}
