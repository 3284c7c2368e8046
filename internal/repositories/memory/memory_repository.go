package memory

import (
	"context"
	"sync"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

// store holds every collection. One mutex serializes all access; a transaction
// holds it for its whole duration and restores a snapshot on error.
type store struct {
	mu sync.Mutex

	students      []*models.StudentProfile
	sessions      []*models.ChatSession
	notifications []*models.Notification
	questions     []*models.QuizQuestion
	admins        []*models.AdminAccount
}

func (s *store) snapshot() *store {
	snap := &store{}
	for _, st := range s.students {
		snap.students = append(snap.students, st.Clone())
	}
	for _, cs := range s.sessions {
		snap.sessions = append(snap.sessions, cloneSession(cs))
	}
	for _, n := range s.notifications {
		snap.notifications = append(snap.notifications, cloneNotification(n))
	}
	for _, q := range s.questions {
		snap.questions = append(snap.questions, cloneQuestion(q))
	}
	for _, a := range s.admins {
		snap.admins = append(snap.admins, cloneAdmin(a))
	}
	return snap
}

func (s *store) restore(snap *store) {
	s.students = snap.students
	s.sessions = snap.sessions
	s.notifications = snap.notifications
	s.questions = snap.questions
	s.admins = snap.admins
}

// Repository is the in-process backend used for STORAGE_DRIVER=memory and in tests
type Repository struct {
	store *store
	inTx  bool

	student      *studentRepository
	chatSession  *chatSessionRepository
	notification *notificationRepository
	question     *questionRepository
	admin        *adminRepository
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return newRepository(&store{}, false)
}

func newRepository(s *store, inTx bool) *Repository {
	r := &Repository{store: s, inTx: inTx}
	r.student = &studentRepository{r}
	r.chatSession = &chatSessionRepository{r}
	r.notification = &notificationRepository{r}
	r.question = &questionRepository{r}
	r.admin = &adminRepository{r}
	return r
}

// lock acquires the store mutex unless the caller already runs inside a transaction
func (r *Repository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *Repository) Student() repositories.StudentRepository           { return r.student }
func (r *Repository) ChatSession() repositories.ChatSessionRepository   { return r.chatSession }
func (r *Repository) Notification() repositories.NotificationRepository { return r.notification }
func (r *Repository) Question() repositories.QuestionRepository         { return r.question }
func (r *Repository) Admin() repositories.AdminRepository               { return r.admin }

// WithTransaction runs fn with exclusive access; any error rolls every collection back
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()
	if err := fn(newRepository(r.store, true)); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error { return ctx.Err() }
func (r *Repository) Close() error                   { return nil }

// RepositoryManager wraps the in-memory repository in the manager lifecycle
type RepositoryManager struct {
	repo *Repository
}

func NewRepositoryManager() repositories.RepositoryManager {
	return &RepositoryManager{}
}

func (rm *RepositoryManager) Initialize() error {
	rm.repo = NewRepository()
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository { return rm.repo }

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error { return rm.repo.Ping(ctx) }

func (rm *RepositoryManager) Shutdown(ctx context.Context) error { return rm.repo.Close() }
