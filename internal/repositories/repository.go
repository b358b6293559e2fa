package repositories

import "context"

// Repository aggregates all per-domain repository interfaces.
type Repository interface {
	// Course domain
	Course() CourseRepository
	Module() ModuleRepository
	Question() QuestionRepository

	// Learner domain
	Enrollment() EnrollmentRepository
	Progress() ProgressRepository

	// Engagement domain
	Contact() ContactRepository
	Chat() ChatRepository
	Notification() NotificationRepository

	// User domain (read-only, owned by the identity provider)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
