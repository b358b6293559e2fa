package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elimu-foundation/lms-service/internal/events"
	"github.com/elimu-foundation/lms-service/internal/models"
)

type enrollmentFixture struct {
	service EnrollmentService
	repo    *fakeRepo
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()

	repo := &fakeRepo{
		course: &fakeCourseRepo{courses: map[uint]*models.Course{
			1: {ID: 1, Title: "Sustainable Farming", Status: models.CoursePublished, CreatedBy: "instructor-1"},
			2: {ID: 2, Title: "Water Management", Status: models.CourseDraft, CreatedBy: "instructor-1"},
		}},
		enrollment:   &fakeEnrollmentRepo{enrollments: map[string]*models.Enrollment{}},
		progress:     &fakeProgressRepo{progress: map[string]*models.ModuleProgress{}},
		notification: &fakeNotificationRepo{},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	notification := NewNotificationService(repo, logger, events.NewMockEventPublisher())
	service := NewEnrollmentService(repo, nil, logger, notification)

	return &enrollmentFixture{service: service, repo: repo}
}

func TestEnrollmentService_Enroll(t *testing.T) {
	f := newEnrollmentFixture(t)

	resp, err := f.service.Enroll(context.Background(), 1, "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, resp.Enrollment.Status)
	assert.WithinDuration(t, time.Now(), resp.Enrollment.EnrolledAt, time.Minute)

	require.Len(t, f.repo.notification.created, 1)
	assert.Equal(t, models.NotificationEnrollment, f.repo.notification.created[0].Type)
}

func TestEnrollmentService_EnrollTwice(t *testing.T) {
	f := newEnrollmentFixture(t)

	_, err := f.service.Enroll(context.Background(), 1, "student-1")
	require.NoError(t, err)

	_, err = f.service.Enroll(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestEnrollmentService_EnrollUnpublishedCourse(t *testing.T) {
	f := newEnrollmentFixture(t)

	_, err := f.service.Enroll(context.Background(), 2, "student-1")
	assert.ErrorIs(t, err, ErrCourseNotPublished)
}

func TestEnrollmentService_ReEnrollAfterWithdrawal(t *testing.T) {
	f := newEnrollmentFixture(t)

	completedAt := time.Now().Add(-48 * time.Hour)
	f.repo.enrollment.enrollments[enrollmentKey(1, "student-1")] = &models.Enrollment{
		ID:          7,
		CourseID:    1,
		StudentID:   "student-1",
		Status:      models.EnrollmentWithdrawn,
		EnrolledAt:  time.Now().Add(-72 * time.Hour),
		CompletedAt: &completedAt,
	}

	resp, err := f.service.Enroll(context.Background(), 1, "student-1")
	require.NoError(t, err)

	// The withdrawn row is reactivated rather than duplicated.
	assert.Equal(t, uint(7), resp.Enrollment.ID)
	assert.Equal(t, models.EnrollmentActive, resp.Enrollment.Status)
	assert.Nil(t, resp.Enrollment.CompletedAt)
	assert.WithinDuration(t, time.Now(), resp.Enrollment.EnrolledAt, time.Minute)
	assert.Len(t, f.repo.enrollment.enrollments, 1)
}

func TestEnrollmentService_WithdrawnStudentHasNoCourseProgressAccess(t *testing.T) {
	f := newEnrollmentFixture(t)

	f.repo.enrollment.enrollments[enrollmentKey(1, "student-1")] = &models.Enrollment{
		ID: 3, CourseID: 1, StudentID: "student-1", Status: models.EnrollmentWithdrawn,
	}

	_, err := f.service.GetCourseProgress(context.Background(), 1, "student-1")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestEnrollmentService_WithdrawIsIdempotent(t *testing.T) {
	f := newEnrollmentFixture(t)

	_, err := f.service.Enroll(context.Background(), 1, "student-1")
	require.NoError(t, err)

	require.NoError(t, f.service.Withdraw(context.Background(), 1, "student-1"))
	require.NoError(t, f.service.Withdraw(context.Background(), 1, "student-1"))

	enrollment := f.repo.enrollment.enrollments[enrollmentKey(1, "student-1")]
	assert.Equal(t, models.EnrollmentWithdrawn, enrollment.Status)
}
