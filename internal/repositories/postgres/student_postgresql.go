package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

// ===== READ OPERATIONS =====

// List returns every profile in storage order (join time, then id)
func (s *StudentPostgreSQL) List(ctx context.Context) ([]*models.StudentProfile, error) {
	var students []*models.StudentProfile
	if err := s.db.WithContext(ctx).Order("joined_at ASC, id ASC").Find(&students).Error; err != nil {
		return nil, handleDBError(err, "list students")
	}
	return students, nil
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	var student models.StudentProfile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return nil, handleDBError(err, "get student by id")
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByIDForUpdate(ctx context.Context, id string) (*models.StudentProfile, error) {
	var student models.StudentProfile
	if err := forUpdate(s.db.WithContext(ctx)).Where("id = ?", id).First(&student).Error; err != nil {
		return nil, handleDBError(err, "lock student")
	}
	return &student, nil
}

func (s *StudentPostgreSQL) FindByNameAndGrade(ctx context.Context, name, grade string) (*models.StudentProfile, error) {
	var student models.StudentProfile
	err := s.db.WithContext(ctx).
		Where("LOWER(TRIM(name)) = ? AND grade = ?", strings.ToLower(strings.TrimSpace(name)), grade).
		Order("joined_at ASC").
		First(&student).Error
	if err != nil {
		return nil, handleDBError(err, "find student by name and grade")
	}
	return &student, nil
}

// ===== WRITE OPERATIONS =====

func (s *StudentPostgreSQL) Create(ctx context.Context, student *models.StudentProfile) error {
	if err := s.db.WithContext(ctx).Create(student).Error; err != nil {
		return handleDBError(err, "create student")
	}
	return nil
}

func (s *StudentPostgreSQL) Save(ctx context.Context, student *models.StudentProfile) error {
	if err := upsertAll(s.db.WithContext(ctx)).Create(student).Error; err != nil {
		return handleDBError(err, "save student")
	}
	return nil
}

// AddScore runs a single UPDATE ... SET score = score + ? RETURNING *
func (s *StudentPostgreSQL) AddScore(ctx context.Context, id string, delta int) (*models.StudentProfile, error) {
	var student models.StudentProfile
	result := s.db.WithContext(ctx).
		Model(&student).
		Clauses(clause.Returning{}).
		Where("id = ? AND score + ? >= 0", id, delta).
		UpdateColumn("score", gorm.Expr("score + ?", delta))
	if result.Error != nil {
		return nil, handleDBError(result.Error, "add student score")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.StudentProfile{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, handleDBError(err, "check student")
		}
		if count == 0 {
			return nil, fmt.Errorf("add student score: %w", repositories.ErrNotFound)
		}
		return nil, repositories.ErrScoreNegative
	}

	return &student, nil
}

func (s *StudentPostgreSQL) ToggleBlocked(ctx context.Context, id string) (*models.StudentProfile, error) {
	var student models.StudentProfile
	result := s.db.WithContext(ctx).
		Model(&student).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		UpdateColumn("is_blocked", gorm.Expr("NOT is_blocked"))
	if result.Error != nil {
		return nil, handleDBError(result.Error, "toggle student block")
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("toggle student block: %w", repositories.ErrNotFound)
	}
	return &student, nil
}

// Delete leaves the student's chat sessions in place
func (s *StudentPostgreSQL) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StudentProfile{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete student")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete student: %w", repositories.ErrNotFound)
	}
	return nil
}

func (s *StudentPostgreSQL) ReplaceAll(ctx context.Context, students []*models.StudentProfile) error {
	db := s.db.WithContext(ctx)
	if err := deleteAll(db, &models.StudentProfile{}); err != nil {
		return handleDBError(err, "clear students")
	}
	if len(students) == 0 {
		return nil
	}
	if err := db.CreateInBatches(students, batchSize).Error; err != nil {
		return handleDBError(err, "insert students")
	}
	return nil
}
