package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elimu-foundation/lms-service/internal/events"
	"github.com/elimu-foundation/lms-service/internal/grading"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

// ===== IN-MEMORY FAKES =====

type fakeModuleRepo struct {
	repositories.ModuleRepository
	modules map[uint]*models.CourseModule
}

func (f *fakeModuleRepo) GetByID(_ context.Context, id uint) (*models.CourseModule, error) {
	if m, ok := f.modules[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeModuleRepo) CountByCourse(_ context.Context, courseID uint) (int64, error) {
	var count int64
	for _, m := range f.modules {
		if m.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

type fakeCourseRepo struct {
	repositories.CourseRepository
	courses map[uint]*models.Course
}

func (f *fakeCourseRepo) GetByID(_ context.Context, id uint) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeEnrollmentRepo struct {
	repositories.EnrollmentRepository
	enrollments map[string]*models.Enrollment // key: courseID:studentID
}

func enrollmentKey(courseID uint, studentID string) string {
	return fmt.Sprintf("%d:%s", courseID, studentID)
}

func (f *fakeEnrollmentRepo) HasActiveEnrollment(_ context.Context, courseID uint, studentID string) (bool, error) {
	e, ok := f.enrollments[enrollmentKey(courseID, studentID)]
	return ok && e.Status != models.EnrollmentWithdrawn, nil
}

func (f *fakeEnrollmentRepo) GetByCourseAndStudent(_ context.Context, courseID uint, studentID string) (*models.Enrollment, error) {
	if e, ok := f.enrollments[enrollmentKey(courseID, studentID)]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	f.enrollments[enrollmentKey(enrollment.CourseID, enrollment.StudentID)] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) Update(_ context.Context, enrollment *models.Enrollment) error {
	f.enrollments[enrollmentKey(enrollment.CourseID, enrollment.StudentID)] = enrollment
	return nil
}

type fakeProgressRepo struct {
	repositories.ProgressRepository
	progress map[string]*models.ModuleProgress // key: moduleID:studentID
}

func progressKey(moduleID uint, studentID string) string {
	return fmt.Sprintf("%d:%s", moduleID, studentID)
}

func (f *fakeProgressRepo) Upsert(_ context.Context, p *models.ModuleProgress) error {
	key := progressKey(p.ModuleID, p.StudentID)
	if existing, ok := f.progress[key]; ok {
		p.Attempts = existing.Attempts + 1
	}
	stored := *p
	f.progress[key] = &stored
	return nil
}

func (f *fakeProgressRepo) GetByModuleAndStudent(_ context.Context, moduleID uint, studentID string) (*models.ModuleProgress, error) {
	if p, ok := f.progress[progressKey(moduleID, studentID)]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProgressRepo) CountCompleted(_ context.Context, courseID uint, studentID string) (int64, error) {
	var count int64
	for _, p := range f.progress {
		if p.CourseID == courseID && p.StudentID == studentID && p.Completed {
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct {
	repositories.NotificationRepository
	created []*models.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) CreateBatch(_ context.Context, ns []*models.Notification) error {
	f.created = append(f.created, ns...)
	return nil
}

// fakeRepo aggregates the fakes; unused sub-repositories return nil
type fakeRepo struct {
	repositories.Repository
	course       *fakeCourseRepo
	module       *fakeModuleRepo
	enrollment   *fakeEnrollmentRepo
	progress     *fakeProgressRepo
	notification *fakeNotificationRepo
}

func (f *fakeRepo) Course() repositories.CourseRepository             { return f.course }
func (f *fakeRepo) Module() repositories.ModuleRepository             { return f.module }
func (f *fakeRepo) Enrollment() repositories.EnrollmentRepository     { return f.enrollment }
func (f *fakeRepo) Progress() repositories.ProgressRepository         { return f.progress }
func (f *fakeRepo) Notification() repositories.NotificationRepository { return f.notification }

// ===== TEST SETUP =====

type gradingFixture struct {
	service   GradingService
	repo      *fakeRepo
	publisher *events.MockEventPublisher
}

func newGradingFixture(t *testing.T) *gradingFixture {
	t.Helper()

	repo := &fakeRepo{
		module: &fakeModuleRepo{modules: map[uint]*models.CourseModule{
			10: {ID: 10, CourseID: 1, Title: "Composting Basics"},
			11: {ID: 11, CourseID: 1, Title: "Mulching"},
			20: {ID: 20, CourseID: 2, Title: "Borehole Maintenance"},
		}},
		enrollment: &fakeEnrollmentRepo{enrollments: map[string]*models.Enrollment{
			enrollmentKey(1, "student-1"): {ID: 1, CourseID: 1, StudentID: "student-1", Status: models.EnrollmentActive},
		}},
		progress:     &fakeProgressRepo{progress: map[string]*models.ModuleProgress{}},
		notification: &fakeNotificationRepo{},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher()
	notification := NewNotificationService(repo, logger, publisher)
	service := NewGradingService(nil, repo, logger, validator.New(), publisher, notification)

	return &gradingFixture{service: service, repo: repo, publisher: publisher}
}

func strPtr(s string) *string { return &s }

func sampleQuestions() []grading.Question {
	return []grading.Question{
		{ID: 1, Prompt: "Which practice retains soil moisture?", Kind: grading.MultipleChoice, Options: []string{"A", "B", "C"}, CorrectAnswer: "B", Points: 2},
		{ID: 2, Prompt: "Mulch suppresses weeds.", Kind: grading.TrueFalse, CorrectAnswer: "true", Points: 1},
	}
}

// ===== TESTS =====

func TestGradingService_SubmitPassing(t *testing.T) {
	f := newGradingFixture(t)

	req := &SubmitAssessmentRequest{
		Questions: sampleQuestions(),
		Answers:   []*string{strPtr("b"), strPtr("TRUE")},
	}

	result, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, req, "student-1")
	require.NoError(t, err)

	assert.Equal(t, 100, result.ScorePercent)
	assert.True(t, result.Passed)
	assert.Equal(t, 3, result.EarnedPoints)
	assert.Equal(t, 3, result.TotalPoints)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t,
		"Congratulations! You passed the assessment. Your answers were verified automatically.",
		result.Feedback)

	stored, err := f.repo.progress.GetByModuleAndStudent(context.Background(), 10, "student-1")
	require.NoError(t, err)
	assert.True(t, stored.Passed)
	assert.True(t, stored.Completed)
	assert.NotNil(t, stored.LastGradedAt)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventModuleGraded, published[0].Type)
	assert.Equal(t, "lms-service", published[0].Source)

	require.Len(t, f.repo.notification.created, 1)
	assert.Equal(t, models.NotificationModuleGraded, f.repo.notification.created[0].Type)
}

func TestGradingService_SubmitFailing(t *testing.T) {
	f := newGradingFixture(t)

	req := &SubmitAssessmentRequest{
		Questions: sampleQuestions(),
		Answers:   []*string{strPtr("b"), strPtr("false")},
	}

	result, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, req, "student-1")
	require.NoError(t, err)

	// 2 of 3 points = 67%
	assert.Equal(t, 67, result.ScorePercent)
	assert.False(t, result.Passed)
	assert.Equal(t,
		"You scored 67%. A score of at least 70% is required to pass. Please review the module and try again.",
		result.Feedback)

	stored, err := f.repo.progress.GetByModuleAndStudent(context.Background(), 10, "student-1")
	require.NoError(t, err)
	assert.False(t, stored.Completed)
}

func TestGradingService_ResubmissionIncrementsAttempts(t *testing.T) {
	f := newGradingFixture(t)

	fail := &SubmitAssessmentRequest{
		Questions: sampleQuestions(),
		Answers:   []*string{nil, nil},
	}
	pass := &SubmitAssessmentRequest{
		Questions: sampleQuestions(),
		Answers:   []*string{strPtr("B"), strPtr("true")},
	}

	first, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, fail, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempts)
	assert.Equal(t, 0, first.ScorePercent)

	second, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, pass, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempts)
	assert.True(t, second.Passed)
}

func TestGradingService_ModuleCourseMismatch(t *testing.T) {
	f := newGradingFixture(t)

	req := &SubmitAssessmentRequest{
		Questions: sampleQuestions(),
		Answers:   []*string{strPtr("B"), strPtr("true")},
	}

	// Module 20 belongs to course 2, not course 1
	_, err := f.service.SubmitModuleAssessment(context.Background(), 1, 20, req, "student-1")
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestGradingService_NotEnrolled(t *testing.T) {
	f := newGradingFixture(t)

	req := &SubmitAssessmentRequest{
		Questions: sampleQuestions(),
		Answers:   []*string{strPtr("B"), strPtr("true")},
	}

	_, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, req, "stranger")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestGradingService_WithdrawnStudentCannotSubmit(t *testing.T) {
	f := newGradingFixture(t)
	f.repo.enrollment.enrollments[enrollmentKey(1, "student-1")].Status = models.EnrollmentWithdrawn

	req := &SubmitAssessmentRequest{
		Questions: sampleQuestions(),
		Answers:   []*string{strPtr("B"), strPtr("true")},
	}

	_, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, req, "student-1")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	// The withdrawn enrollment must not drift to any other state.
	enrollment := f.repo.enrollment.enrollments[enrollmentKey(1, "student-1")]
	assert.Equal(t, models.EnrollmentWithdrawn, enrollment.Status)
	assert.Empty(t, f.repo.progress.progress)
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestGradingService_MissingQuestions(t *testing.T) {
	f := newGradingFixture(t)

	req := &SubmitAssessmentRequest{
		Questions: nil,
		Answers:   []*string{strPtr("B")},
	}

	_, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, req, "student-1")
	require.Error(t, err)

	var validationErrors ValidationErrors
	assert.ErrorAs(t, err, &validationErrors)
}

func TestGradingService_EmptyQuestionListGradesToZero(t *testing.T) {
	f := newGradingFixture(t)

	req := &SubmitAssessmentRequest{
		Questions: []grading.Question{},
		Answers:   []*string{},
	}

	result, err := f.service.SubmitModuleAssessment(context.Background(), 1, 10, req, "student-1")
	require.NoError(t, err)

	assert.Equal(t, 0, result.ScorePercent)
	assert.Equal(t, 0, result.TotalPoints)
	assert.Equal(t, 0, result.EarnedPoints)
	assert.False(t, result.Passed)
}

func TestGradingService_CompletingAllModulesCompletesEnrollment(t *testing.T) {
	f := newGradingFixture(t)

	pass := func(moduleID uint) {
		req := &SubmitAssessmentRequest{
			Questions: sampleQuestions(),
			Answers:   []*string{strPtr("B"), strPtr("true")},
		}
		_, err := f.service.SubmitModuleAssessment(context.Background(), 1, moduleID, req, "student-1")
		require.NoError(t, err)
	}

	pass(10)
	enrollment := f.repo.enrollment.enrollments[enrollmentKey(1, "student-1")]
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)

	pass(11)
	enrollment = f.repo.enrollment.enrollments[enrollmentKey(1, "student-1")]
	assert.Equal(t, models.EnrollmentCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
	assert.WithinDuration(t, time.Now(), *enrollment.CompletedAt, time.Minute)
}

func TestGradingService_EvaluateSubmissionStateless(t *testing.T) {
	f := newGradingFixture(t)

	result, err := f.service.EvaluateSubmission(sampleQuestions(), []*string{strPtr("B"), nil})
	require.NoError(t, err)
	assert.Equal(t, 67, result.ScorePercent)
	assert.False(t, result.Passed)

	// Nothing persisted, nothing published
	assert.Empty(t, f.publisher.GetPublishedEvents())
	assert.Empty(t, f.repo.progress.progress)
}
