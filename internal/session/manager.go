package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/realtime"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

// Reasons sent with a forced_logout frame
const (
	ReasonInactivity   = "inactivity"
	ReasonSetupExpired = "setup_expired"
	ReasonBlocked      = realtime.ReasonBlocked
)

const avatarGeneratorURL = "https://api.dicebear.com/7.x/initials/svg?seed="

// ProfileSaver persists a student profile, keeping the stored score and block flag
type ProfileSaver interface {
	SaveStudent(ctx context.Context, profile *models.StudentProfile) (*models.StudentProfile, error)
}

// Manager owns every live session
type Manager struct {
	repo     repositories.Repository
	profiles ProfileSaver
	records  RecordStore
	sources  *realtime.Sources
	timeout  time.Duration
	setupTTL time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. sources may be nil, in which case student
// sessions run without push updates. Profile setup sessions get the same lifetime as
// timeout, counted from login and not extended by activity.
func NewManager(repo repositories.Repository, profiles ProfileSaver, records RecordStore, sources *realtime.Sources, timeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		repo:     repo,
		profiles: profiles,
		records:  records,
		sources:  sources,
		timeout:  timeout,
		setupTTL: timeout,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// ===== LOGIN =====

// LoginStudent authenticates by name and grade. A profile without a password enters
// profile setup and skips the password check.
func (m *Manager) LoginStudent(ctx context.Context, name, grade, password string) (*Session, error) {
	profile, err := m.repo.Student().FindByNameAndGrade(ctx, strings.TrimSpace(name), strings.TrimSpace(grade))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to find student: %w", err)
	}

	if profile.IsBlocked {
		return nil, ErrAccountBlocked
	}

	if profile.NeedsSetup() {
		// a student has at most one pending setup
		for _, prev := range m.SessionsForStudent(profile.ID) {
			if prev.View() == ViewProfileSetup {
				m.end(ctx, prev)
			}
		}

		sess := newSession(uuid.NewString(), models.RoleStudent, profile.ID, ViewProfileSetup)
		sess.state.Profile = profile
		m.register(sess)
		m.armSetupExpiry(sess)

		m.logger.InfoContext(ctx, "Student entered profile setup", "student_id", profile.ID)
		return sess, nil
	}

	if profile.Password != password {
		return nil, ErrInvalidCredentials
	}

	sess := newSession(uuid.NewString(), models.RoleStudent, profile.ID, ViewStudentDashboard)
	sess.state.Profile = profile
	if err := m.authenticate(ctx, sess); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "Student logged in", "student_id", profile.ID)
	return sess, nil
}

// CompleteProfileSetup stores the first password, avatar and teacher, then moves
// the session to the student dashboard
func (m *Manager) CompleteProfileSetup(ctx context.Context, sess *Session, req *models.ProfileSetupRequest) (*Session, error) {
	if !sess.IsStudent() {
		return nil, ErrForbidden
	}
	if sess.View() != ViewProfileSetup {
		return nil, fmt.Errorf("profile setup already completed: %w", ErrInvalidTransition)
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	profile := sess.Profile()
	switch {
	case req.GenerateAvatar:
		avatar := GenerateAvatarURL(profile.Name)
		profile.Avatar = &avatar
	case req.Avatar != nil && strings.TrimSpace(*req.Avatar) != "":
		avatar := strings.TrimSpace(*req.Avatar)
		profile.Avatar = &avatar
	default:
		return nil, ErrAvatarRequired
	}

	profile.Password = req.Password
	if req.TeacherName != nil {
		teacher := strings.TrimSpace(*req.TeacherName)
		if teacher == "" {
			profile.TeacherName = nil
		} else {
			profile.TeacherName = &teacher
		}
	}

	saved, err := m.profiles.SaveStudent(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	if saved.IsBlocked {
		m.end(ctx, sess)
		return nil, ErrAccountBlocked
	}

	sess.SetProfile(saved)
	if err := sess.Transition(ViewStudentDashboard); err != nil {
		return nil, err
	}
	if err := m.authenticate(ctx, sess); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "Student completed profile setup", "student_id", saved.ID)
	return sess, nil
}

// LoginAdmin authenticates a local admin account
func (m *Manager) LoginAdmin(ctx context.Context, username, password string) (*Session, error) {
	admin, err := m.repo.Admin().GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	// SSO-only accounts have no local password
	if admin.Password == "" || admin.Password != password {
		return nil, ErrInvalidCredentials
	}

	return m.startAdmin(ctx, admin)
}

// LoginAdminWithToken exchanges a Casdoor token for an admin session
func (m *Manager) LoginAdminWithToken(ctx context.Context, token string) (*Session, error) {
	verifier, ok := m.repo.Admin().(repositories.AdminTokenVerifier)
	if !ok {
		return nil, ErrSSOUnavailable
	}

	admin, err := verifier.VerifyToken(ctx, token)
	if err != nil {
		m.logger.WarnContext(ctx, "Casdoor token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return m.startAdmin(ctx, admin)
}

func (m *Manager) startAdmin(ctx context.Context, admin *models.AdminAccount) (*Session, error) {
	sess := newSession(uuid.NewString(), models.RoleAdmin, admin.Username, ViewAdminDashboard)
	sess.state.Admin = admin
	if err := m.authenticate(ctx, sess); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "Admin logged in", "username", admin.Username)
	return sess, nil
}

// ===== RESTORE =====

// Resolve returns the live session for token, restoring it from its durable record
// when this process does not hold it
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if sess, ok := m.Get(token); ok {
		return sess, nil
	}
	return m.Restore(ctx, token)
}

// Restore re-validates a session. Students are re-fetched; a missing or blocked
// profile discards the record.
func (m *Manager) Restore(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	if sess, ok := m.Get(token); ok {
		if sess.IsStudent() && sess.View() != ViewProfileSetup {
			if err := m.revalidate(ctx, sess); err != nil {
				return nil, err
			}
		}
		return sess, nil
	}

	record, err := m.records.Load(ctx, token)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	switch record.Role {
	case models.RoleAdmin:
		admin, err := m.repo.Admin().GetByUsername(ctx, record.SubjectID)
		if err != nil {
			m.discard(ctx, token)
			if repositories.IsNotFoundError(err) {
				return nil, ErrSessionInvalid
			}
			return nil, err
		}
		sess := newSession(token, models.RoleAdmin, admin.Username, ViewAdminDashboard)
		sess.state.Admin = admin
		if err := m.authenticate(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil

	case models.RoleStudent:
		profile, err := m.repo.Student().GetByID(ctx, record.SubjectID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				m.discard(ctx, token)
				return nil, ErrSessionInvalid
			}
			return nil, err
		}
		if profile.IsBlocked {
			m.discard(ctx, token)
			return nil, ErrAccountBlocked
		}
		sess := newSession(token, models.RoleStudent, profile.ID, ViewStudentDashboard)
		sess.state.Profile = profile
		if err := m.authenticate(ctx, sess); err != nil {
			return nil, err
		}
		m.logger.InfoContext(ctx, "Student session restored", "student_id", profile.ID)
		return sess, nil
	}

	m.discard(ctx, token)
	return nil, ErrSessionInvalid
}

func (m *Manager) revalidate(ctx context.Context, sess *Session) error {
	profile, err := m.repo.Student().GetByID(ctx, sess.SubjectID())
	if err != nil {
		if repositories.IsNotFoundError(err) {
			m.end(ctx, sess)
			return ErrSessionInvalid
		}
		return err
	}
	if profile.IsBlocked {
		m.forceLogout(sess, ReasonBlocked)
		return ErrAccountBlocked
	}
	sess.SetProfile(profile)
	return nil
}

// ===== ACTIVITY / NAVIGATION =====

// Activity feeds a user-activity signal to the watchdog
func (m *Manager) Activity(ctx context.Context, sess *Session, signal string) error {
	if !slices.Contains(validator.ActivitySignals, signal) {
		return fmt.Errorf("%q: %w", signal, ErrUnknownSignal)
	}

	w, _ := sess.runtime()
	if w == nil {
		return nil
	}
	w.Reset()

	// Keep the durable record alive without writing on every signal
	sess.mu.Lock()
	due := time.Since(sess.lastTouch) > m.timeout/10
	if due {
		sess.lastTouch = time.Now()
	}
	sess.mu.Unlock()

	if due {
		if err := m.records.Touch(ctx, sess.Token(), m.timeout); err != nil {
			m.logger.WarnContext(ctx, "Failed to refresh session record", "error", err)
		}
	}
	return nil
}

// SetView applies a client navigation request. LOGIN is handled by Logout and QUIZ
// by the quiz flow.
func (m *Manager) SetView(ctx context.Context, sess *Session, view View) error {
	switch view {
	case ViewLogin:
		return m.Logout(ctx, sess.Token())
	case ViewQuiz, ViewProfileSetup:
		return fmt.Errorf("%s is not directly navigable: %w", view, ErrInvalidTransition)
	}
	return sess.Transition(view)
}

// ===== TEARDOWN =====

// Logout ends the session. Mutations already in flight still complete.
func (m *Manager) Logout(ctx context.Context, token string) error {
	sess, ok := m.Get(token)
	if !ok {
		m.discard(ctx, token)
		return nil
	}
	m.end(ctx, sess)
	m.logger.InfoContext(ctx, "Session logged out", "role", sess.Role(), "subject_id", sess.SubjectID())
	return nil
}

func (m *Manager) forceLogout(sess *Session, reason string) {
	sess.Push(Frame{Type: FrameForcedLogout, Data: map[string]string{"reason": reason}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.end(ctx, sess)

	m.logger.Info("Session forcibly logged out",
		"reason", reason,
		"role", sess.Role(),
		"subject_id", sess.SubjectID())
}

func (m *Manager) end(ctx context.Context, sess *Session) {
	m.mu.Lock()
	current, ok := m.sessions[sess.Token()]
	if ok && current == sess {
		delete(m.sessions, sess.Token())
	}
	m.mu.Unlock()

	stopRuntime(sess)
	_ = sess.Do(func(st *State) error {
		st.View = ViewLogin
		st.Quiz = nil
		return nil
	})
	m.discard(ctx, sess.Token())
	sess.close()
}

func (m *Manager) armSetupExpiry(sess *Session) {
	timer := time.AfterFunc(m.setupTTL, func() {
		if sess.View() == ViewProfileSetup {
			m.forceLogout(sess, ReasonSetupExpired)
		}
	})
	sess.mu.Lock()
	sess.setupTimer = timer
	sess.mu.Unlock()
}

func (m *Manager) discard(ctx context.Context, token string) {
	if err := m.records.Delete(ctx, token); err != nil {
		m.logger.WarnContext(ctx, "Failed to clear session record", "error", err)
	}
}

// Shutdown stops every watchdog and bridge. Durable records are kept so sessions can be
// restored by the next process.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		stopRuntime(s)
		s.close()
	}
}

func stopRuntime(sess *Session) {
	sess.stopSetupTimer()
	w, b := sess.runtime()
	if w != nil {
		w.Stop()
	}
	if b != nil {
		b.Stop()
	}
}

// ===== LOOKUP =====

func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[token]
	return sess, ok
}

// ActiveCount reports how many sessions are live
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SessionsForStudent returns the live sessions of one student
func (m *Manager) SessionsForStudent(studentID string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.IsStudent() && s.SubjectID() == studentID {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) register(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.Token()] = sess
}

// authenticate persists the durable record, arms the watchdog and starts the bridge
func (m *Manager) authenticate(ctx context.Context, sess *Session) error {
	if view := sess.View(); !view.authenticated() {
		return fmt.Errorf("cannot authenticate on %s: %w", view, ErrInvalidTransition)
	}
	sess.stopSetupTimer()

	record := Record{
		SubjectID: sess.SubjectID(),
		Role:      sess.Role(),
		Timestamp: time.Now().UTC(),
	}
	if err := m.records.Save(ctx, sess.Token(), record, m.timeout); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	m.register(sess)

	w := newWatchdog(m.timeout, func() {
		m.forceLogout(sess, ReasonInactivity)
	})

	var bridge *realtime.Bridge
	if sess.IsStudent() && m.sources != nil {
		bridge = realtime.NewBridge(sess.SubjectID(), *m.sources, sessionSink{m: m, s: sess}, m.logger)
	}

	sess.mu.Lock()
	sess.lastTouch = time.Now()
	sess.mu.Unlock()
	sess.setRuntime(w, bridge)

	if bridge != nil {
		// the first push may already carry the block flag
		bridge.Start()
		if _, ok := m.Get(sess.Token()); !ok {
			return ErrAccountBlocked
		}
	}

	return nil
}

// GenerateAvatarURL returns an initials avatar for the name
func GenerateAvatarURL(name string) string {
	return avatarGeneratorURL + url.QueryEscape(strings.TrimSpace(name))
}
