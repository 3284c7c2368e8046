package realtime

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type fakeStream[T any] struct {
	mu        sync.Mutex
	current   []T
	listeners map[int]func([]T)
	next      int
}

func newFakeStream[T any](initial ...T) *fakeStream[T] {
	return &fakeStream[T]{current: initial, listeners: map[int]func([]T){}}
}

func (f *fakeStream[T]) Subscribe(onUpdate func([]T)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = onUpdate
	current := f.current
	f.mu.Unlock()

	onUpdate(current)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeStream[T]) Push(items ...T) {
	f.mu.Lock()
	f.current = items
	fns := make([]func([]T), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(items)
	}
}

func (f *fakeStream[T]) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

type recordingSink struct {
	mu           sync.Mutex
	profiles     []*models.StudentProfile
	unread       []int
	avatars      []models.AvatarsResponse
	logoutReason string
}

func (s *recordingSink) ApplyProfile(p *models.StudentProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append(s.profiles, p)
}

func (s *recordingSink) ApplyNotifications(_ []*models.Notification, unread int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = append(s.unread, unread)
}

func (s *recordingSink) ApplyAvatars(a models.AvatarsResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avatars = append(s.avatars, a)
}

func (s *recordingSink) ForceLogout(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutReason = reason
}

type fakeAdmins struct {
	byName map[string]*models.AdminAccount
	main   *models.AdminAccount
	calls  int
}

func (f *fakeAdmins) GetByUsername(_ context.Context, username string) (*models.AdminAccount, error) {
	f.calls++
	if a, ok := f.byName[username]; ok {
		return a, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAdmins) GetMain(context.Context) (*models.AdminAccount, error) {
	if f.main == nil {
		return nil, repositories.ErrNotFound
	}
	return f.main, nil
}

func strPtr(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestBridge(students *fakeStream[*models.StudentProfile], notifications *fakeStream[*models.Notification], admins *fakeAdmins) (*Bridge, *recordingSink) {
	sink := &recordingSink{}
	bridge := NewBridge("s1", Sources{
		Students:      students,
		Notifications: func(string) Stream[*models.Notification] { return notifications },
		Admins:        admins,
	}, sink, testLogger())
	return bridge, sink
}

func TestBridge_AppliesProfileWholesale(t *testing.T) {
	students := newFakeStream(&models.StudentProfile{ID: "s1", Name: "Ani", Score: 5})
	notifications := newFakeStream[*models.Notification]()
	bridge, sink := newTestBridge(students, notifications, &fakeAdmins{})

	bridge.Start()
	defer bridge.Stop()

	students.Push(
		&models.StudentProfile{ID: "s2", Name: "Other", Score: 99},
		&models.StudentProfile{ID: "s1", Name: "Ani", Score: 15},
	)

	require.Len(t, sink.profiles, 2)
	assert.Equal(t, 5, sink.profiles[0].Score)
	assert.Equal(t, 15, sink.profiles[1].Score)
	assert.Empty(t, sink.logoutReason)
}

func TestBridge_BlockedForcesLogoutBeforeApplying(t *testing.T) {
	students := newFakeStream(&models.StudentProfile{ID: "s1", Name: "Ani", Score: 5})
	notifications := newFakeStream[*models.Notification]()
	bridge, sink := newTestBridge(students, notifications, &fakeAdmins{})

	bridge.Start()

	students.Push(&models.StudentProfile{ID: "s1", Name: "Ani", Score: 500, IsBlocked: true})

	assert.Equal(t, ReasonBlocked, sink.logoutReason)
	require.Len(t, sink.profiles, 1)
	assert.Equal(t, 5, sink.profiles[0].Score)
	assert.Zero(t, students.Listeners())
	assert.Zero(t, notifications.Listeners())
}

func TestBridge_BlockedAtStartSkipsNotifications(t *testing.T) {
	students := newFakeStream(&models.StudentProfile{ID: "s1", IsBlocked: true})
	notifications := newFakeStream[*models.Notification]()
	bridge, sink := newTestBridge(students, notifications, &fakeAdmins{})

	bridge.Start()

	assert.Equal(t, ReasonBlocked, sink.logoutReason)
	assert.Empty(t, sink.profiles)
	assert.Empty(t, sink.unread)
	assert.Zero(t, notifications.Listeners())
}

func TestBridge_UnreadCount(t *testing.T) {
	students := newFakeStream(&models.StudentProfile{ID: "s1"})
	notifications := newFakeStream(
		&models.Notification{ID: "n1"},
		&models.Notification{ID: "n2", ReadBy: []string{"s1"}},
		&models.Notification{ID: "n3", ReadBy: []string{"s9"}},
	)
	bridge, sink := newTestBridge(students, notifications, &fakeAdmins{})

	bridge.Start()
	defer bridge.Stop()

	notifications.Push(
		&models.Notification{ID: "n1", ReadBy: []string{"s1"}},
		&models.Notification{ID: "n2", ReadBy: []string{"s1"}},
		&models.Notification{ID: "n3", ReadBy: []string{"s9"}},
	)

	assert.Equal(t, []int{2, 1}, sink.unread)
}

func TestBridge_AvatarsRefreshOnTeacherChange(t *testing.T) {
	admins := &fakeAdmins{
		byName: map[string]*models.AdminAccount{
			"mrs.smith": {Username: "mrs.smith", Avatar: strPtr("https://img/smith.png")},
		},
		main: &models.AdminAccount{Username: "admin", DisplayName: "director"},
	}
	students := newFakeStream(&models.StudentProfile{ID: "s1", TeacherName: strPtr("mr.jones")})
	notifications := newFakeStream[*models.Notification]()
	bridge, sink := newTestBridge(students, notifications, admins)

	bridge.Start()
	defer bridge.Stop()

	// same teacher, no new lookup
	students.Push(&models.StudentProfile{ID: "s1", TeacherName: strPtr("mr.jones"), Score: 3})
	students.Push(&models.StudentProfile{ID: "s1", TeacherName: strPtr("mrs.smith")})

	require.Len(t, sink.avatars, 2)
	assert.Equal(t, models.AvatarsResponse{Teacher: "M", TeacherIsInitial: true, MainAdmin: "D", MainAdminIsInitial: true}, sink.avatars[0])
	assert.Equal(t, "https://img/smith.png", sink.avatars[1].Teacher)
	assert.False(t, sink.avatars[1].TeacherIsInitial)
	assert.Equal(t, 2, admins.calls)
}

func TestBridge_StopDetaches(t *testing.T) {
	students := newFakeStream(&models.StudentProfile{ID: "s1"})
	notifications := newFakeStream[*models.Notification]()
	bridge, sink := newTestBridge(students, notifications, &fakeAdmins{})

	bridge.Start()
	bridge.Stop()

	students.Push(&models.StudentProfile{ID: "s1", Score: 42})
	assert.Len(t, sink.profiles, 1)
	assert.Zero(t, students.Listeners())
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "A", Initial("ani"))
	assert.Equal(t, "Ж", Initial(" жанна"))
	assert.Equal(t, "?", Initial("  "))
}
