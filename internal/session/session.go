package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/realtime"
)

// Frame types pushed to attached clients
const (
	FrameProfile       = "profile"
	FrameNotifications = "notifications"
	FrameAvatars       = "avatars"
	FrameForcedLogout  = "forced_logout"
	FrameView          = "view"
)

// Frame is one push message
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// NotificationsFrame is the payload of a notifications frame
type NotificationsFrame struct {
	Items       []*models.Notification `json:"items"`
	UnreadCount int                    `json:"unreadCount"`
}

// QuizRun is the progress of one subject run
type QuizRun struct {
	Subject   string
	Questions []*models.QuizQuestion
	Index     int

	// per-question state, reset on advance
	Answered bool
	Selected int
	Correct  bool
	Earned   int
	Pending  bool
}

// Current returns the question being shown
func (q *QuizRun) Current() *models.QuizQuestion {
	if q == nil || q.Index >= len(q.Questions) {
		return nil
	}
	return q.Questions[q.Index]
}

// IsLast reports whether the current question is the final one
func (q *QuizRun) IsLast() bool {
	return q.Index >= len(q.Questions)-1
}

// State is the mutable part of a session
type State struct {
	View          View
	Profile       *models.StudentProfile
	Admin         *models.AdminAccount
	UnreadCount   int
	Notifications []*models.Notification
	Avatars       models.AvatarsResponse
	ChatSessionID string
	Quiz          *QuizRun
}

// Session is the explicit per-login context. It is created by a login or restore and
// torn down by logout, expiry or a forced logout.
type Session struct {
	token     string
	role      models.UserRole
	subjectID string
	issuedAt  time.Time

	mu    sync.Mutex
	state State

	lastTouch  time.Time
	watchdog   *watchdog
	bridge     *realtime.Bridge
	setupTimer *time.Timer

	// serializes chat exchanges of this session
	chatMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]chan Frame
	nextSub int
	closed  bool
}

func newSession(token string, role models.UserRole, subjectID string, view View) *Session {
	return &Session{
		token:     token,
		role:      role,
		subjectID: subjectID,
		issuedAt:  time.Now().UTC(),
		state:     State{View: view},
		subs:      make(map[int]chan Frame),
	}
}

func (s *Session) Token() string         { return s.token }
func (s *Session) Role() models.UserRole { return s.role }
func (s *Session) SubjectID() string     { return s.subjectID }
func (s *Session) IssuedAt() time.Time   { return s.issuedAt }
func (s *Session) IsStudent() bool       { return s.role == models.RoleStudent }
func (s *Session) IsAdmin() bool         { return s.role == models.RoleAdmin }

// View returns the current view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.View
}

// Profile returns a copy of the session's student profile
func (s *Session) Profile() *models.StudentProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Profile.Clone()
}

// Snapshot returns a copy of the state safe to read without locking
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Profile = s.state.Profile.Clone()
	st.Notifications = append([]*models.Notification(nil), s.state.Notifications...)
	return st
}

// Do runs fn with exclusive access to the state. fn must not block on I/O.
func (s *Session) Do(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// SetProfile replaces the profile copy wholesale and pushes it
func (s *Session) SetProfile(profile *models.StudentProfile) {
	s.mu.Lock()
	s.state.Profile = profile.Clone()
	s.mu.Unlock()

	s.Push(Frame{Type: FrameProfile, Data: profile})
}

// Transition moves to another view if the state machine allows it
func (s *Session) Transition(to View) error {
	s.mu.Lock()
	from := s.state.View
	if !CanTransition(from, to) {
		s.mu.Unlock()
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	s.state.View = to
	if to != ViewQuiz {
		s.state.Quiz = nil
	}
	s.mu.Unlock()

	s.Push(Frame{Type: FrameView, Data: to})
	return nil
}

// Response renders the session for login and restore replies
func (s *Session) Response() models.StudentSessionResponse {
	st := s.Snapshot()
	resp := models.StudentSessionResponse{
		Token:       s.token,
		Role:        s.role,
		View:        string(st.View),
		Profile:     st.Profile,
		Admin:       st.Admin,
		IssuedAt:    s.issuedAt,
		UnreadCount: st.UnreadCount,
	}
	if st.Profile != nil {
		resp.NeedsSetup = st.View == ViewProfileSetup
	}
	return resp
}

// Attach registers a push listener. The channel is closed when the session ends.
func (s *Session) Attach() (<-chan Frame, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	ch := make(chan Frame, 64)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Push delivers a frame to every attached listener, dropping it for slow ones
func (s *Session) Push(frame Frame) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (s *Session) setRuntime(w *watchdog, b *realtime.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchdog, s.bridge = w, b
}

func (s *Session) runtime() (*watchdog, *realtime.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchdog, s.bridge
}

// LockChat holds the session's chat until the returned func is called
func (s *Session) LockChat() (unlock func()) {
	s.chatMu.Lock()
	return s.chatMu.Unlock
}

func (s *Session) stopSetupTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setupTimer != nil {
		s.setupTimer.Stop()
		s.setupTimer = nil
	}
}

func (s *Session) close() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// sessionSink applies bridge output to a session
type sessionSink struct {
	m *Manager
	s *Session
}

func (k sessionSink) ApplyProfile(profile *models.StudentProfile) {
	k.s.SetProfile(profile)
}

func (k sessionSink) ApplyNotifications(items []*models.Notification, unread int) {
	_ = k.s.Do(func(st *State) error {
		st.Notifications = items
		st.UnreadCount = unread
		return nil
	})
	k.s.Push(Frame{Type: FrameNotifications, Data: NotificationsFrame{Items: items, UnreadCount: unread}})
}

func (k sessionSink) ApplyAvatars(avatars models.AvatarsResponse) {
	_ = k.s.Do(func(st *State) error {
		st.Avatars = avatars
		return nil
	})
	k.s.Push(Frame{Type: FrameAvatars, Data: avatars})
}

func (k sessionSink) ForceLogout(reason string) {
	k.m.forceLogout(k.s, reason)
}
