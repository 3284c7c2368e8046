package repositories

import (
	"context"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

// StudentRepository persists student profiles. List returns storage order.
type StudentRepository interface {
	List(ctx context.Context) ([]*models.StudentProfile, error)
	GetByID(ctx context.Context, id string) (*models.StudentProfile, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.StudentProfile, error)
	// FindByNameAndGrade matches name case-insensitively and grade exactly.
	FindByNameAndGrade(ctx context.Context, name, grade string) (*models.StudentProfile, error)

	Create(ctx context.Context, student *models.StudentProfile) error
	// Save upserts by id, overwriting every column.
	Save(ctx context.Context, student *models.StudentProfile) error
	// AddScore applies score = score + delta atomically and returns the updated profile.
	AddScore(ctx context.Context, id string, delta int) (*models.StudentProfile, error)
	ToggleBlocked(ctx context.Context, id string) (*models.StudentProfile, error)
	Delete(ctx context.Context, id string) error

	// ReplaceAll drops every profile and inserts the given ones.
	ReplaceAll(ctx context.Context, students []*models.StudentProfile) error
}

// ChatSessionRepository persists tutoring transcripts
type ChatSessionRepository interface {
	// Save upserts by id (full overwrite of the transcript).
	Save(ctx context.Context, session *models.ChatSession) error
	GetByID(ctx context.Context, id string) (*models.ChatSession, error)
	List(ctx context.Context) ([]*models.ChatSession, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.ChatSession, error)
	Delete(ctx context.Context, id string) error

	ReplaceAll(ctx context.Context, sessions []*models.ChatSession) error
}

// NotificationRepository persists notifications and their read receipts
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context) ([]*models.Notification, error)
	// ListForStudent returns broadcasts plus notifications targeted at the student.
	ListForStudent(ctx context.Context, studentID string) ([]*models.Notification, error)
	// MarkRead adds studentID to readBy if absent. changed is false when it was already present.
	MarkRead(ctx context.Context, id, studentID string) (changed bool, err error)
	Delete(ctx context.Context, id string) error
}

// QuestionRepository serves the static quiz question set
type QuestionRepository interface {
	List(ctx context.Context) ([]*models.QuizQuestion, error)
	ListBySubject(ctx context.Context, subject string) ([]*models.QuizQuestion, error)
	// UpsertMany inserts or replaces questions by id.
	UpsertMany(ctx context.Context, questions []*models.QuizQuestion) error
	Count(ctx context.Context) (int64, error)
}

// AdminRepository reads and stores admin accounts
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	GetMain(ctx context.Context) (*models.AdminAccount, error)
	List(ctx context.Context) ([]*models.AdminAccount, error)
	Upsert(ctx context.Context, admin *models.AdminAccount) error
}

// AdminTokenVerifier is implemented by admin repositories that can exchange an
// external identity token for an admin account
type AdminTokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.AdminAccount, error)
}
