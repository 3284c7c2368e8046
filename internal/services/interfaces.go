package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/session"
)

// ===== PROFILE STORE =====

type ProfileService interface {
	// Students
	GetStudents(ctx context.Context) ([]*models.StudentProfile, error)
	GetStudent(ctx context.Context, id string) (*models.StudentProfile, error)
	CreateStudent(ctx context.Context, req *models.StudentCreateRequest) (*models.StudentProfile, error)
	UpdateStudent(ctx context.Context, id string, req *models.StudentUpdateRequest) (*models.StudentProfile, error)
	SaveStudent(ctx context.Context, profile *models.StudentProfile) (*models.StudentProfile, error)
	UpdateStudentScore(ctx context.Context, id string, delta int) (*models.StudentProfile, error)
	ToggleStudentBlockStatus(ctx context.Context, id string) (*models.StudentProfile, error)
	DeleteStudent(ctx context.Context, id string) error
	FindStudentByNameAndGrade(ctx context.Context, name, grade string) (*models.StudentProfile, error)

	// Bulk import; records[i] holds the fields of line i+1
	BulkImportStudents(ctx context.Context, text string) (*models.ImportResult, error)
	ImportStudentRecords(ctx context.Context, records [][]string) (*models.ImportResult, error)

	// Backup
	ExportDatabase(ctx context.Context) ([]byte, error)
	RestoreDatabase(ctx context.Context, data []byte) (bool, error)

	// Chat sessions
	SaveSession(ctx context.Context, chat *models.ChatSession) error
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
	GetAllSessions(ctx context.Context) ([]*models.ChatSession, error)
	GetStudentSessions(ctx context.Context, studentID string) ([]*models.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
}

type ImportExportService interface {
	ImportStudentsXLSX(ctx context.Context, r io.Reader) (*models.ImportResult, error)
	ExportStudentsXLSX(ctx context.Context, w io.Writer) error
	ImportQuestionsXLSX(ctx context.Context, r io.Reader) (*models.ImportResult, error)
}

// ===== STUDENT FEATURES =====

type QuizService interface {
	Subjects(ctx context.Context) ([]string, error)
	Start(ctx context.Context, sess *session.Session, subject string) (*models.QuizQuestionView, error)
	Current(sess *session.Session) (*models.QuizQuestionView, error)
	Answer(ctx context.Context, sess *session.Session, option int) (*models.AnswerResult, error)
	Next(ctx context.Context, sess *session.Session) (*models.QuizQuestionView, error)
	Exit(ctx context.Context, sess *session.Session) error
	EnsureQuestions(ctx context.Context) error
}

// StoreCatalog lists every cosmetic item by category
type StoreCatalog struct {
	Frames      []models.CosmeticItem `json:"frames"`
	Backgrounds []models.CosmeticItem `json:"backgrounds"`
}

type StoreService interface {
	Catalog() StoreCatalog
	Purchase(ctx context.Context, sess *session.Session, itemID string) (*models.StudentProfile, error)
	Equip(ctx context.Context, sess *session.Session, itemID string) (*models.StudentProfile, error)
}

type ChatService interface {
	StartChat(ctx context.Context, sess *session.Session) (*models.ChatSession, error)
	SendMessage(ctx context.Context, sess *session.Session, text string) (*models.ChatSession, error)
	CurrentChat(ctx context.Context, sess *session.Session) (*models.ChatSession, error)
}

// ===== NOTIFICATIONS / ADMINS =====

type NotificationService interface {
	Create(ctx context.Context, req *models.NotificationCreateRequest) (*models.Notification, error)
	List(ctx context.Context) ([]*models.Notification, error)
	ListForStudent(ctx context.Context, studentID string) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, studentID string) (int, error)
	MarkRead(ctx context.Context, id, studentID string) error
	Delete(ctx context.Context, id string) error
}

type AdminService interface {
	EnsureMainAdmin(ctx context.Context, username, password string) error
	List(ctx context.Context) ([]*models.AdminAccount, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Initialize(ctx context.Context) error

	Profile() ProfileService
	ImportExport() ImportExportService
	Quiz() QuizService
	Store() StoreService
	Chat() ChatService
	Notification() NotificationService
	Admin() AdminService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
