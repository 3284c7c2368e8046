package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/llm"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories/memory"
	"github.com/SAP-F-2025/tutor-service/internal/session"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type fixture struct {
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	services  ServiceManager
	sessions  *session.Manager
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newFixture(t *testing.T, tutor llm.Tutor) *fixture {
	t.Helper()
	logger := testLogger()

	repo := memory.NewRepository()
	publisher := events.NewMockEventPublisher(logger)
	sm := NewServiceManager(repo, publisher, tutor, logger, validator.New(), ServiceManagerConfig{
		MainAdminUsername: "mainadmin",
		MainAdminPassword: "secret",
	})
	require.NoError(t, sm.Initialize(context.Background()))

	manager := session.NewManager(repo, sm.Profile(), session.NewMemoryRecordStore(), nil, time.Minute, logger)
	t.Cleanup(manager.Shutdown)

	return &fixture{repo: repo, publisher: publisher, services: sm, sessions: manager}
}

// loginStudent registers a student with the given score and opens a dashboard session
func (f *fixture) loginStudent(t *testing.T, name string, score int) *session.Session {
	t.Helper()
	ctx := context.Background()

	student, err := f.services.Profile().CreateStudent(ctx, &models.StudentCreateRequest{
		Name:     name,
		Grade:    "9",
		Password: "pw",
	})
	require.NoError(t, err)
	if score > 0 {
		_, err = f.services.Profile().UpdateStudentScore(ctx, student.ID, score)
		require.NoError(t, err)
	}

	sess, err := f.sessions.LoginStudent(ctx, name, "9", "pw")
	require.NoError(t, err)
	return sess
}

func (f *fixture) seedQuestions(t *testing.T, questions ...*models.QuizQuestion) {
	t.Helper()
	require.NoError(t, f.repo.Question().UpsertMany(context.Background(), questions))
}
