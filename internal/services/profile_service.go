package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

// headerWords mark the first line of an import as a header row
var headerWords = []string{"name", "имя", "nombre", "nom", "nama"}

// Backup is the JSON document produced by ExportDatabase
type Backup struct {
	Students  []*models.StudentProfile `json:"students"`
	Sessions  []*models.ChatSession    `json:"sessions"`
	Timestamp time.Time                `json:"timestamp"`
}

type profileService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	changes   changeNotifier
}

func NewProfileService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ProfileService {
	return &profileService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		changes:   changeNotifier{publisher: publisher, logger: logger},
	}
}

// ===== STUDENTS =====

func (s *profileService) GetStudents(ctx context.Context) ([]*models.StudentProfile, error) {
	students, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *profileService) GetStudent(ctx context.Context, id string) (*models.StudentProfile, error) {
	student, err := s.repo.Student().GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}
	return student, nil
}

func (s *profileService) CreateStudent(ctx context.Context, req *models.StudentCreateRequest) (*models.StudentProfile, error) {
	s.logger.Info("Creating student", "name", req.Name, "grade", req.Grade)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	name, grade := strings.TrimSpace(req.Name), strings.TrimSpace(req.Grade)
	if err := s.ensureUnique(ctx, name, grade, ""); err != nil {
		return nil, err
	}

	student := &models.StudentProfile{
		ID:          uuid.NewString(),
		Name:        name,
		Grade:       grade,
		Password:    req.Password,
		Avatar:      req.Avatar,
		TeacherName: req.TeacherName,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.repo.Student().Create(ctx, student); err != nil {
		s.logger.Error("Failed to create student", "error", err)
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionCreated, student.ID)
	s.logger.Info("Student created", "student_id", student.ID)
	return student, nil
}

func (s *profileService) UpdateStudent(ctx context.Context, id string, req *models.StudentUpdateRequest) (*models.StudentProfile, error) {
	s.logger.Info("Updating student", "student_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var updated *models.StudentProfile
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		student, err := tx.Student().GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err, ErrStudentNotFound)
		}

		if req.Name != nil {
			student.Name = strings.TrimSpace(*req.Name)
		}
		if req.Grade != nil {
			student.Grade = strings.TrimSpace(*req.Grade)
		}
		if req.Name != nil || req.Grade != nil {
			if err := s.ensureUniqueIn(ctx, tx, student.Name, student.Grade, student.ID); err != nil {
				return err
			}
		}
		if req.Password != nil {
			student.Password = *req.Password
		}
		if req.Avatar != nil {
			student.Avatar = req.Avatar
		}
		if req.TeacherName != nil {
			student.TeacherName = req.TeacherName
		}

		if err := tx.Student().Save(ctx, student); err != nil {
			return fmt.Errorf("failed to save student: %w", err)
		}
		updated = student
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionUpdated, id)
	return updated, nil
}

// SaveStudent upserts by id. The stored block flag and score always win over the
// caller's copy so a stale session can never unblock itself or rewrite its points.
func (s *profileService) SaveStudent(ctx context.Context, profile *models.StudentProfile) (*models.StudentProfile, error) {
	saved := profile.Clone()
	action := events.ActionUpdated

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if saved.ID == "" {
			saved.ID = uuid.NewString()
		}

		existing, err := tx.Student().GetByIDForUpdate(ctx, saved.ID)
		switch {
		case err == nil:
			saved.IsBlocked = existing.IsBlocked
			saved.Score = existing.Score
			if saved.JoinedAt.IsZero() {
				saved.JoinedAt = existing.JoinedAt
			}
		case repositories.IsNotFoundError(err):
			action = events.ActionCreated
			if saved.JoinedAt.IsZero() {
				saved.JoinedAt = time.Now().UTC()
			}
		default:
			return fmt.Errorf("failed to load student: %w", err)
		}

		if err := tx.Student().Save(ctx, saved); err != nil {
			return fmt.Errorf("failed to save student: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save student", "student_id", saved.ID, "error", err)
		return nil, err
	}

	s.changes.notify(ctx, events.TopicStudentsChanged, action, saved.ID)
	return saved, nil
}

func (s *profileService) UpdateStudentScore(ctx context.Context, id string, delta int) (*models.StudentProfile, error) {
	student, err := s.repo.Student().AddScore(ctx, id, delta)
	if err != nil {
		if errors.Is(err, repositories.ErrScoreNegative) {
			return nil, ErrNegativeScore
		}
		return nil, mapNotFound(err, ErrStudentNotFound)
	}

	s.logger.Info("Student score updated", "student_id", id, "delta", delta, "score", student.Score)
	s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionUpdated, id)
	return student, nil
}

func (s *profileService) ToggleStudentBlockStatus(ctx context.Context, id string) (*models.StudentProfile, error) {
	student, err := s.repo.Student().ToggleBlocked(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}

	s.logger.Info("Student block status toggled", "student_id", id, "blocked", student.IsBlocked)
	s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionUpdated, id)
	return student, nil
}

func (s *profileService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.repo.Student().Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrStudentNotFound)
	}

	s.logger.Info("Student deleted", "student_id", id)
	s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionDeleted, id)
	return nil
}

func (s *profileService) FindStudentByNameAndGrade(ctx context.Context, name, grade string) (*models.StudentProfile, error) {
	student, err := s.repo.Student().FindByNameAndGrade(ctx, strings.TrimSpace(name), strings.TrimSpace(grade))
	if err != nil {
		return nil, mapNotFound(err, ErrStudentNotFound)
	}
	return student, nil
}

func (s *profileService) ensureUnique(ctx context.Context, name, grade, selfID string) error {
	return s.ensureUniqueIn(ctx, s.repo, name, grade, selfID)
}

func (s *profileService) ensureUniqueIn(ctx context.Context, repo repositories.Repository, name, grade, selfID string) error {
	existing, err := repo.Student().FindByNameAndGrade(ctx, name, grade)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrDuplicateStudent
	case err == nil, repositories.IsNotFoundError(err):
		return nil
	default:
		return fmt.Errorf("failed to check duplicates: %w", err)
	}
}

// ===== BULK IMPORT =====

func (s *profileService) BulkImportStudents(ctx context.Context, text string) (*models.ImportResult, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	records := make([][]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records[i] = strings.Split(line, ",")
	}
	return s.ImportStudentRecords(ctx, records)
}

// ImportStudentRecords imports one record per line. Nil or blank records are skipped
// but still count towards line numbers. A header on the first line is skipped.
func (s *profileService) ImportStudentRecords(ctx context.Context, records [][]string) (*models.ImportResult, error) {
	result := &models.ImportResult{Errors: []string{}}

	existing, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	type identity struct{ name, grade string }
	seen := make(map[identity]bool, len(existing))
	for _, st := range existing {
		seen[identity{strings.ToLower(strings.TrimSpace(st.Name)), st.Grade}] = true
	}

	business := s.validator.GetBusinessValidator()
	var created []string

	for i, record := range records {
		lineNo := i + 1
		if blankRecord(record) {
			continue
		}
		if i == 0 && isHeader(record) {
			continue
		}

		fields := trimmed(record)
		if errs := business.ValidateImportRecord(fields); len(errs) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %s", lineNo, errs[0].Field+" "+errs[0].Message))
			continue
		}

		key := identity{strings.ToLower(fields[0]), fields[1]}
		if seen[key] {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: student %q in grade %q already exists", lineNo, fields[0], fields[1]))
			continue
		}

		student := &models.StudentProfile{
			ID:       uuid.NewString(),
			Name:     fields[0],
			Grade:    fields[1],
			Password: fields[2],
			JoinedAt: time.Now().UTC(),
		}
		if err := s.repo.Student().Create(ctx, student); err != nil {
			s.logger.Error("Failed to import student", "line", lineNo, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: could not be saved", lineNo))
			continue
		}

		seen[key] = true
		created = append(created, student.ID)
		result.Added++
	}

	if len(created) > 0 {
		s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionCreated, created...)
	}
	s.logger.Info("Student import finished", "added", result.Added, "errors", len(result.Errors))
	return result, nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// isHeader reports whether any field is exactly a header word
func isHeader(record []string) bool {
	for _, field := range record {
		field = strings.TrimSpace(field)
		for _, w := range headerWords {
			if strings.EqualFold(field, w) {
				return true
			}
		}
	}
	return false
}

// ===== BACKUP =====

func (s *profileService) ExportDatabase(ctx context.Context) ([]byte, error) {
	students, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	sessions, err := s.repo.ChatSession().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	data, err := json.MarshalIndent(Backup{
		Students:  students,
		Sessions:  sessions,
		Timestamp: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Database exported", "students", len(students), "sessions", len(sessions))
	return data, nil
}

// RestoreDatabase replaces every collection present in the backup. A malformed
// document, or one with neither collection, changes nothing and reports false.
func (s *profileService) RestoreDatabase(ctx context.Context, data []byte) (bool, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("Rejected malformed backup", "error", err)
		return false, nil
	}

	var students []*models.StudentProfile
	var sessions []*models.ChatSession
	rawStudents, hasStudents := doc["students"]
	rawSessions, hasSessions := doc["sessions"]
	if !hasStudents && !hasSessions {
		return false, nil
	}
	if hasStudents {
		if err := json.Unmarshal(rawStudents, &students); err != nil {
			s.logger.Warn("Rejected backup with malformed students", "error", err)
			return false, nil
		}
	}
	if hasSessions {
		if err := json.Unmarshal(rawSessions, &sessions); err != nil {
			s.logger.Warn("Rejected backup with malformed sessions", "error", err)
			return false, nil
		}
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if hasStudents {
			if err := tx.Student().ReplaceAll(ctx, compact(students)); err != nil {
				return fmt.Errorf("failed to replace students: %w", err)
			}
		}
		if hasSessions {
			if err := tx.ChatSession().ReplaceAll(ctx, compact(sessions)); err != nil {
				return fmt.Errorf("failed to replace sessions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to restore backup", "error", err)
		return false, err
	}

	if hasStudents {
		s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionReplaced)
	}
	if hasSessions {
		s.changes.notify(ctx, events.TopicSessionsChanged, events.ActionReplaced)
	}
	s.logger.Info("Database restored", "students", len(students), "sessions", len(sessions))
	return true, nil
}

func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

// ===== CHAT SESSIONS =====

func (s *profileService) SaveSession(ctx context.Context, chat *models.ChatSession) error {
	if err := s.repo.ChatSession().Save(ctx, chat); err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	s.changes.notify(ctx, events.TopicSessionsChanged, events.ActionUpdated, chat.ID)
	return nil
}

func (s *profileService) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	chat, err := s.repo.ChatSession().GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrSessionNotFound)
	}
	return chat, nil
}

func (s *profileService) GetAllSessions(ctx context.Context) ([]*models.ChatSession, error) {
	sessions, err := s.repo.ChatSession().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

func (s *profileService) GetStudentSessions(ctx context.Context, studentID string) ([]*models.ChatSession, error) {
	sessions, err := s.repo.ChatSession().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

func (s *profileService) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.ChatSession().Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrSessionNotFound)
	}
	s.logger.Info("Chat session deleted", "session_id", id)
	s.changes.notify(ctx, events.TopicSessionsChanged, events.ActionDeleted, id)
	return nil
}
