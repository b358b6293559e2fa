package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elimu-foundation/lms-service/internal/grading"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type stubGradingService struct {
	result *services.AssessmentResultResponse
	err    error

	gotCourseID  uint
	gotModuleID  uint
	gotStudentID string
}

func (s *stubGradingService) SubmitModuleAssessment(_ context.Context, courseID, moduleID uint, _ *services.SubmitAssessmentRequest, studentID string) (*services.AssessmentResultResponse, error) {
	s.gotCourseID = courseID
	s.gotModuleID = moduleID
	s.gotStudentID = studentID
	return s.result, s.err
}

func (s *stubGradingService) EvaluateSubmission(questions []grading.Question, answers []*string) (*grading.GradeResult, error) {
	return grading.Grade(questions, answers)
}

func (s *stubGradingService) GetResult(_ context.Context, _ uint, _ string) (*models.ModuleProgress, error) {
	return nil, s.err
}

func newGradingTestRouter(service services.GradingService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := NewGradingHandler(service, validator.New(), logger)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "student-1")
		c.Next()
	})
	router.POST("/api/v1/courses/:id/modules/:module_id/submit", handler.SubmitAssessment)
	router.GET("/api/v1/modules/:id/result", handler.GetResult)
	return router
}

func submitBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	answer := "B"
	body, err := json.Marshal(services.SubmitAssessmentRequest{
		Questions: []grading.Question{
			{Prompt: "Pick B", Kind: grading.MultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: "B", Points: 1},
		},
		Answers: []*string{&answer},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestSubmitAssessment_Success(t *testing.T) {
	stub := &stubGradingService{
		result: &services.AssessmentResultResponse{
			CourseID:     1,
			ModuleID:     10,
			ScorePercent: 100,
			Passed:       true,
			EarnedPoints: 1,
			TotalPoints:  1,
			Feedback:     "Congratulations! You passed the assessment. Your answers were verified automatically.",
			Attempts:     1,
			GradedAt:     time.Now(),
		},
	}
	router := newGradingTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/1/modules/10/submit", submitBody(t))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(1), stub.gotCourseID)
	assert.Equal(t, uint(10), stub.gotModuleID)
	assert.Equal(t, "student-1", stub.gotStudentID)

	var result services.AssessmentResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Passed)
	assert.Equal(t, 100, result.ScorePercent)
	assert.Contains(t, result.Feedback, "Congratulations")
}

func TestSubmitAssessment_InvalidPayload(t *testing.T) {
	router := newGradingTestRouter(&stubGradingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/1/modules/10/submit", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAssessment_InvalidModuleID(t *testing.T) {
	router := newGradingTestRouter(&stubGradingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/1/modules/abc/submit", submitBody(t))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAssessment_NotEnrolled(t *testing.T) {
	router := newGradingTestRouter(&stubGradingService{err: services.ErrNotEnrolled})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/1/modules/10/submit", submitBody(t))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitAssessment_ModuleNotFound(t *testing.T) {
	router := newGradingTestRouter(&stubGradingService{err: services.ErrModuleNotFound})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/1/modules/10/submit", submitBody(t))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetResult_NoSubmission(t *testing.T) {
	router := newGradingTestRouter(&stubGradingService{err: services.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/modules/10/result", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
