package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories/memory"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/session"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type testServer struct {
	router   *gin.Engine
	services services.ServiceManager
	sessions *session.Manager
	repo     *memory.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewRepository()
	v := validator.New()

	sm := services.NewServiceManager(repo, events.NewMockEventPublisher(logger), nil, logger, v, services.ServiceManagerConfig{
		MainAdminUsername: "mainadmin",
		MainAdminPassword: "secret",
	})
	require.NoError(t, sm.Initialize(context.Background()))

	manager := session.NewManager(repo, sm.Profile(), session.NewMemoryRecordStore(), nil, time.Minute, logger)
	t.Cleanup(manager.Shutdown)

	router := gin.New()
	appLogger := utils.NewSlogLogger(logger)
	SetupMiddleware(router, appLogger, nil)
	NewHandlerManager(sm, manager, v, appLogger, nil).SetupRoutes(router)

	return &testServer{router: router, services: sm, sessions: manager, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if _, ok := body.(string); !ok && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createStudent(t *testing.T, name, password string, score int) *models.StudentProfile {
	t.Helper()
	ctx := context.Background()
	student, err := s.services.Profile().CreateStudent(ctx, &models.StudentCreateRequest{Name: name, Grade: "9", Password: password})
	require.NoError(t, err)
	if score > 0 {
		student, err = s.services.Profile().UpdateStudentScore(ctx, student.ID, score)
		require.NoError(t, err)
	}
	return student
}

func (s *testServer) loginStudent(t *testing.T, name string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/students/login", "", models.StudentLoginRequest{Name: name, Grade: "9", Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.StudentSessionResponse](t, w).Token
}

func (s *testServer) loginAdmin(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/admins/login", "", models.AdminLoginRequest{Username: "mainadmin", Password: "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.StudentSessionResponse](t, w).Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStudentLoginErrors(t *testing.T) {
	s := newTestServer(t)
	blocked := s.createStudent(t, "Budi", "pw", 0)
	_, err := s.services.Profile().ToggleStudentBlockStatus(context.Background(), blocked.ID)
	require.NoError(t, err)
	s.createStudent(t, "Ani", "pw", 0)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"unknown student", models.StudentLoginRequest{Name: "Nobody", Grade: "9"}, http.StatusNotFound},
		{"blocked student", models.StudentLoginRequest{Name: "Budi", Grade: "9", Password: "pw"}, http.StatusForbidden},
		{"wrong password", models.StudentLoginRequest{Name: "Ani", Grade: "9", Password: "nope"}, http.StatusUnauthorized},
		{"missing grade", models.StudentLoginRequest{Name: "Ani"}, http.StatusBadRequest},
		{"malformed body", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/auth/students/login", "", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestProfileSetupFlow(t *testing.T) {
	s := newTestServer(t)
	s.createStudent(t, "Ani", "", 0)

	w := s.do(t, http.MethodPost, "/api/v1/auth/students/login", "", models.StudentLoginRequest{Name: "ani", Grade: "9"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.StudentSessionResponse](t, w)
	assert.Equal(t, string(session.ViewProfileSetup), resp.View)
	assert.True(t, resp.NeedsSetup)

	t.Run("dashboard features wait for setup", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/students/me", resp.Token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("passwords must match", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/profile-setup", resp.Token, map[string]interface{}{
			"password": "pw", "confirmPassword": "other", "generateAvatar": true,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w = s.do(t, http.MethodPost, "/api/v1/auth/profile-setup", resp.Token, map[string]interface{}{
		"password": "pw", "confirmPassword": "pw", "generateAvatar": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[models.StudentSessionResponse](t, w)
	assert.Equal(t, string(session.ViewStudentDashboard), done.View)
	require.NotNil(t, done.Profile.Avatar)

	w = s.do(t, http.MethodGet, "/api/v1/students/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ani", decode[models.StudentProfile](t, w).Name)

	stored, err := s.services.Profile().FindStudentByNameAndGrade(context.Background(), "Ani", "9")
	require.NoError(t, err)
	assert.Equal(t, "pw", stored.Password)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)
	s.createStudent(t, "Ani", "pw", 0)
	studentToken := s.loginStudent(t, "Ani")
	adminToken := s.loginAdmin(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/admin/students", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/admin/students", "not-a-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/admin/students", studentToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/quiz/subjects", adminToken, nil).Code)

	w := s.do(t, http.MethodGet, "/api/v1/admin/students", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.StudentProfile](t, w), 1)
}

func TestQuizAndStoreEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.repo.Question().UpsertMany(context.Background(), []*models.QuizQuestion{
		{ID: "q1", Subject: "Math", Question: "2+2?", Options: []string{"4", "5"}, CorrectAnswer: 0, Points: 10},
	}))
	s.createStudent(t, "Ani", "pw", 25)
	token := s.loginStudent(t, "Ani")

	w := s.do(t, http.MethodPost, "/api/v1/quiz/start", token, models.QuizStartRequest{Subject: "Math"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "correctAnswer")

	option := 0
	w = s.do(t, http.MethodPost, "/api/v1/quiz/answer", token, models.QuizAnswerRequest{Option: &option})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[models.AnswerResult](t, w)
	assert.True(t, result.Correct)
	assert.Equal(t, 35, result.Profile.Score)

	w = s.do(t, http.MethodPost, "/api/v1/quiz/answer", token, models.QuizAnswerRequest{Option: &option})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/quiz/exit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/store/purchase", token, models.StoreItemRequest{ItemID: "frame-bronze"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 15, decode[models.StudentProfile](t, w).Score)

	w = s.do(t, http.MethodPost, "/api/v1/store/purchase", token, models.StoreItemRequest{ItemID: "frame-gold"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/store/equip", token, models.StoreItemRequest{ItemID: "frame-bronze"})
	require.Equal(t, http.StatusOK, w.Code)
	equipped := decode[models.StudentProfile](t, w).EquippedFrame
	require.NotNil(t, equipped)
	assert.Equal(t, "frame-bronze", *equipped)
}

func TestChatWithoutTutorKeepsMessage(t *testing.T) {
	s := newTestServer(t)
	s.createStudent(t, "Ani", "pw", 0)
	token := s.loginStudent(t, "Ani")

	w := s.do(t, http.MethodPost, "/api/v1/chat/messages", token, models.ChatMessageRequest{Text: "hi"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/chat/sessions", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/chat/messages", token, models.ChatMessageRequest{Text: "what is a noun?"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "what is a noun?")

	w = s.do(t, http.MethodGet, "/api/v1/chat/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.ChatSession](t, w).Messages, 1)
}

func TestAdminImportBackupRestore(t *testing.T) {
	s := newTestServer(t)
	token := s.loginAdmin(t)

	w := s.do(t, http.MethodPost, "/api/v1/admin/students/import", token, "name,grade,password\nAni,9,pw\nBudi,,pw\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[models.ImportResult](t, w)
	assert.Equal(t, 1, result.Added)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Line 3:")

	w = s.do(t, http.MethodGet, "/api/v1/admin/backup", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "backup_")
	backup := w.Body.String()

	w = s.do(t, http.MethodPost, "/api/v1/admin/restore", token, "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/admin/restore", token, `{"students": []}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.StudentProfile](t, s.do(t, http.MethodGet, "/api/v1/admin/students", token, nil)))

	w = s.do(t, http.MethodPost, "/api/v1/admin/restore", token, backup)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.StudentProfile](t, s.do(t, http.MethodGet, "/api/v1/admin/students", token, nil)), 1)
}

func TestAdminNotifications(t *testing.T) {
	s := newTestServer(t)
	s.createStudent(t, "Ani", "pw", 0)
	adminToken := s.loginAdmin(t)
	studentToken := s.loginStudent(t, "Ani")

	w := s.do(t, http.MethodPost, "/api/v1/admin/notifications", adminToken, models.NotificationCreateRequest{Title: "Exam", Message: "Friday"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Notification](t, w)

	missing := "missing"
	w = s.do(t, http.MethodPost, "/api/v1/admin/notifications", adminToken, models.NotificationCreateRequest{Title: "Hi", Message: "x", TargetStudentID: &missing})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[NotificationsResponse](t, w)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.UnreadCount)

	w = s.do(t, http.MethodPost, "/api/v1/notifications/"+created.ID+"/read", studentToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	assert.Equal(t, 0, decode[NotificationsResponse](t, w).UnreadCount)
}

func TestViewAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.createStudent(t, "Ani", "pw", 0)
	token := s.loginStudent(t, "Ani")

	w := s.do(t, http.MethodPost, "/api/v1/auth/view", token, models.ViewChangeRequest{View: "STORE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "STORE", decode[models.StudentSessionResponse](t, w).View)

	w = s.do(t, http.MethodPost, "/api/v1/auth/view", token, models.ViewChangeRequest{View: "QUIZ"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/activity", token, models.ActivityRequest{Signal: "shake"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResponsesUseCamelCaseKeys(t *testing.T) {
	s := newTestServer(t)
	s.createStudent(t, "Ani", "", 0)

	w := s.do(t, http.MethodPost, "/api/v1/auth/students/login", "", map[string]string{"name": "Ani", "grade": "9"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"needsSetup":true`)
	assert.Contains(t, w.Body.String(), `"issuedAt"`)
	assert.NotContains(t, w.Body.String(), `needs_setup`)
	token := decode[models.StudentSessionResponse](t, w).Token

	w = s.do(t, http.MethodPost, "/api/v1/auth/profile-setup", token, map[string]interface{}{
		"password": "pw", "confirmPassword": "pw", "generateAvatar": true, "teacherName": "mrs.smith",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"teacherName":"mrs.smith"`)

	w = s.do(t, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unreadCount":0`)
}
