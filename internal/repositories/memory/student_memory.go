package memory

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type studentRepository struct {
	r *Repository
}

func (s *studentRepository) List(ctx context.Context) ([]*models.StudentProfile, error) {
	defer s.r.lock()()

	out := make([]*models.StudentProfile, 0, len(s.r.store.students))
	for _, st := range s.r.store.students {
		out = append(out, st.Clone())
	}
	return out, nil
}

func (s *studentRepository) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	defer s.r.lock()()

	if st := s.find(id); st != nil {
		return st.Clone(), nil
	}
	return nil, fmt.Errorf("student %s: %w", id, repositories.ErrNotFound)
}

func (s *studentRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.StudentProfile, error) {
	return s.GetByID(ctx, id)
}

func (s *studentRepository) FindByNameAndGrade(ctx context.Context, name, grade string) (*models.StudentProfile, error) {
	defer s.r.lock()()

	for _, st := range s.r.store.students {
		if st.MatchesIdentity(name, grade) {
			return st.Clone(), nil
		}
	}
	return nil, fmt.Errorf("student %q grade %q: %w", name, grade, repositories.ErrNotFound)
}

func (s *studentRepository) Create(ctx context.Context, student *models.StudentProfile) error {
	defer s.r.lock()()

	if s.find(student.ID) != nil {
		return fmt.Errorf("student %s already exists", student.ID)
	}
	s.r.store.students = append(s.r.store.students, student.Clone())
	return nil
}

func (s *studentRepository) Save(ctx context.Context, student *models.StudentProfile) error {
	defer s.r.lock()()

	for i, st := range s.r.store.students {
		if st.ID == student.ID {
			s.r.store.students[i] = student.Clone()
			return nil
		}
	}
	s.r.store.students = append(s.r.store.students, student.Clone())
	return nil
}

func (s *studentRepository) AddScore(ctx context.Context, id string, delta int) (*models.StudentProfile, error) {
	defer s.r.lock()()

	st := s.find(id)
	if st == nil {
		return nil, fmt.Errorf("student %s: %w", id, repositories.ErrNotFound)
	}
	if st.Score+delta < 0 {
		return nil, repositories.ErrScoreNegative
	}
	st.Score += delta
	return st.Clone(), nil
}

func (s *studentRepository) ToggleBlocked(ctx context.Context, id string) (*models.StudentProfile, error) {
	defer s.r.lock()()

	st := s.find(id)
	if st == nil {
		return nil, fmt.Errorf("student %s: %w", id, repositories.ErrNotFound)
	}
	st.IsBlocked = !st.IsBlocked
	return st.Clone(), nil
}

func (s *studentRepository) Delete(ctx context.Context, id string) error {
	defer s.r.lock()()

	for i, st := range s.r.store.students {
		if st.ID == id {
			s.r.store.students = append(s.r.store.students[:i:i], s.r.store.students[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("student %s: %w", id, repositories.ErrNotFound)
}

func (s *studentRepository) ReplaceAll(ctx context.Context, students []*models.StudentProfile) error {
	defer s.r.lock()()

	replaced := make([]*models.StudentProfile, 0, len(students))
	for _, st := range students {
		replaced = append(replaced, st.Clone())
	}
	s.r.store.students = replaced
	return nil
}

func (s *studentRepository) find(id string) *models.StudentProfile {
	for _, st := range s.r.store.students {
		if st.ID == id {
			return st
		}
	}
	return nil
}
