package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

const (
	rosterSheet = "Students"

	// question sheet columns: id, subject, question, correct (1-based), points, options...
	questionColID       = 0
	questionColSubject  = 1
	questionColQuestion = 2
	questionColCorrect  = 3
	questionColPoints   = 4
	questionColOptions  = 5
)

var rosterHeader = []interface{}{"Name", "Grade", "Score", "Blocked", "Teacher", "Joined"}

type importExportService struct {
	repo      repositories.Repository
	profiles  ProfileService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, profiles ProfileService, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		profiles:  profiles,
		logger:    logger,
		validator: validator,
	}
}

// ImportStudentsXLSX reads name, grade and password from the first three columns of
// the first sheet and applies the CSV import rules.
func (s *importExportService) ImportStudentsXLSX(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	rows, err := readFirstSheet(r)
	if err != nil {
		return nil, err
	}

	records := make([][]string, len(rows))
	for i, row := range rows {
		if blankRecord(row) {
			continue
		}
		records[i] = row
		// trailing empty cells are dropped by excelize; pad so a short row reports a
		// field count, while extra filled columns still fail validation
		for len(records[i]) < 3 {
			records[i] = append(records[i], "")
		}
		if len(records[i]) > 3 && blankRecord(records[i][3:]) {
			records[i] = records[i][:3]
		}
	}

	s.logger.Info("Importing students from workbook", "rows", len(rows))
	return s.profiles.ImportStudentRecords(ctx, records)
}

func (s *importExportService) ExportStudentsXLSX(ctx context.Context, w io.Writer) error {
	students, err := s.profiles.GetStudents(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, st := range students {
		teacher := ""
		if st.TeacherName != nil {
			teacher = *st.TeacherName
		}
		row := []interface{}{st.Name, st.Grade, st.Score, st.IsBlocked, teacher, st.JoinedAt.Format("2006-01-02")}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Info("Students exported to workbook", "count", len(students))
	return nil
}

// ImportQuestionsXLSX upserts quiz questions by id. Rows without an id get a new one.
// A first row whose correct-answer column is not a number is treated as a header.
func (s *importExportService) ImportQuestionsXLSX(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	rows, err := readFirstSheet(r)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{Errors: []string{}}
	business := s.validator.GetBusinessValidator()
	var questions []*models.QuizQuestion

	for i, row := range rows {
		lineNo := i + 1
		if blankRecord(row) {
			continue
		}
		row = trimmed(row)
		if i == 0 && !isNumber(cellAt(row, questionColCorrect)) {
			continue
		}

		correct, err := strconv.Atoi(cellAt(row, questionColCorrect))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: correct answer must be a number", lineNo))
			continue
		}
		points := 10
		if p := cellAt(row, questionColPoints); p != "" {
			if points, err = strconv.Atoi(p); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Line %d: points must be a number", lineNo))
				continue
			}
		}

		var options []string
		if len(row) > questionColOptions {
			for _, opt := range row[questionColOptions:] {
				if opt != "" {
					options = append(options, opt)
				}
			}
		}

		q := &models.QuizQuestion{
			ID:            cellAt(row, questionColID),
			Subject:       cellAt(row, questionColSubject),
			Question:      cellAt(row, questionColQuestion),
			Options:       options,
			CorrectAnswer: correct - 1,
			Points:        points,
		}
		if errs := business.ValidateQuestion(q.Subject, q.Question, q.Options, q.CorrectAnswer, q.Points); len(errs) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %s %s", lineNo, errs[0].Field, errs[0].Message))
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		questions = append(questions, q)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().UpsertMany(ctx, questions); err != nil {
			return nil, fmt.Errorf("failed to save questions: %w", err)
		}
	}
	result.Added = len(questions)

	s.logger.Info("Questions imported from workbook", "added", result.Added, "errors", len(result.Errors))
	return result, nil
}

func readFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	return rows, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isNumber(v string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil
}
