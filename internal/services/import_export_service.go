package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/elimu-foundation/lms-service/internal/grading"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

const questionSheet = "Questions"

// Workbook layout: kind | prompt | options (pipe separated) | correct answer | points
var questionHeader = []string{"Kind", "Prompt", "Options", "CorrectAnswer", "Points"}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	module    ModuleService
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, module ModuleService) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		module:    module,
	}
}

// ImportQuestions reads an xlsx workbook and appends valid rows as
// module questions. Invalid rows are skipped and reported, they never
// abort the whole import.
func (s *importExportService) ImportQuestions(ctx context.Context, moduleID uint, r io.Reader, userID string) (*QuestionImportResult, error) {
	// Ownership is enforced through the module service
	if _, err := s.module.GetByID(ctx, moduleID, userID); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := questionSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	result := &QuestionImportResult{}
	existing, err := s.repo.Question().CountByModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	order := int(existing)

	var questions []*models.ModuleQuestion
	for i, row := range rows {
		if i == 0 {
			continue // Header row
		}

		req, rowErrs := parseQuestionRow(row, i+1)
		if len(rowErrs) > 0 {
			result.Skipped++
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}

		if errs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errs) > 0 {
			result.Skipped++
			for _, e := range errs {
				e.Field = fmt.Sprintf("row %d: %s", i+1, e.Field)
				result.Errors = append(result.Errors, e)
			}
			continue
		}

		order++
		question := &models.ModuleQuestion{
			ModuleID:      moduleID,
			Kind:          req.Kind,
			Prompt:        req.Prompt,
			CorrectAnswer: req.CorrectAnswer,
			Points:        req.Points,
			Order:         order,
		}
		if len(req.Options) > 0 {
			data, err := json.Marshal(req.Options)
			if err != nil {
				return nil, fmt.Errorf("failed to encode options: %w", err)
			}
			question.Options = datatypes.JSON(data)
		}
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, questions); err != nil {
			return nil, fmt.Errorf("failed to store imported questions: %w", err)
		}
	}
	result.Imported = len(questions)

	s.logger.Info("Questions imported",
		"module_id", moduleID,
		"imported", result.Imported,
		"skipped", result.Skipped)

	return result, nil
}

// ExportQuestions writes a module's questions as an xlsx workbook
func (s *importExportService) ExportQuestions(ctx context.Context, moduleID uint, w io.Writer, userID string) error {
	if _, err := s.module.GetByID(ctx, moduleID, userID); err != nil {
		return err
	}

	questions, err := s.repo.Question().GetByModule(ctx, moduleID)
	if err != nil {
		return fmt.Errorf("failed to get questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(questionSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range questionHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(questionSheet, cell, title); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, q := range questions {
		var options []string
		if len(q.Options) > 0 {
			if err := json.Unmarshal(q.Options, &options); err != nil {
				return fmt.Errorf("failed to decode options for question %d: %w", q.ID, err)
			}
		}

		values := []interface{}{
			string(q.Kind),
			q.Prompt,
			strings.Join(options, "|"),
			q.CorrectAnswer,
			q.Points,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(questionSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// parseQuestionRow converts a worksheet row into an authoring request
func parseQuestionRow(row []string, rowNum int) (*CreateQuestionRequest, validator.ValidationErrors) {
	var errs validator.ValidationErrors

	field := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	kind := field(0)
	prompt := field(1)
	optionsRaw := field(2)
	correct := field(3)
	pointsRaw := field(4)

	if prompt == "" {
		errs = append(errs, validator.ValidationError{
			Field:   fmt.Sprintf("row %d: prompt", rowNum),
			Message: "is required",
			Rule:    "required",
		})
	}

	points := 1
	if pointsRaw != "" {
		parsed, err := strconv.Atoi(pointsRaw)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("row %d: points", rowNum),
				Message: "must be a number",
				Value:   pointsRaw,
				Rule:    "points_range",
			})
		} else {
			points = parsed
		}
	}

	var options []string
	if optionsRaw != "" {
		for _, opt := range strings.Split(optionsRaw, "|") {
			if trimmed := strings.TrimSpace(opt); trimmed != "" {
				options = append(options, trimmed)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &CreateQuestionRequest{
		Kind:          grading.QuestionKind(kind),
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
		Points:        points,
	}, nil
}
