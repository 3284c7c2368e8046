package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

// Reasons passed to Sink.ForceLogout
const (
	ReasonBlocked = "blocked"
)

// Sink receives reconciled state for one student session
type Sink interface {
	ApplyProfile(profile *models.StudentProfile)
	ApplyNotifications(items []*models.Notification, unread int)
	ApplyAvatars(avatars models.AvatarsResponse)
	ForceLogout(reason string)
}

// AvatarSource resolves admin avatars by username
type AvatarSource interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	GetMain(ctx context.Context) (*models.AdminAccount, error)
}

// Sources are the upstream feeds a bridge subscribes to
type Sources struct {
	Students      Stream[*models.StudentProfile]
	Notifications func(studentID string) Stream[*models.Notification]
	Admins        AvatarSource
}

// Bridge reconciles pushed collections into one authenticated student's session
type Bridge struct {
	studentID string
	sources   Sources
	sink      Sink
	logger    *slog.Logger

	applyMu       sync.Mutex
	avatarsLoaded bool
	teacherName   string

	stopped atomic.Bool
	unsubMu sync.Mutex
	unsubs  []func()
}

func NewBridge(studentID string, sources Sources, sink Sink, logger *slog.Logger) *Bridge {
	return &Bridge{
		studentID: studentID,
		sources:   sources,
		sink:      sink,
		logger:    logger.With("student_id", studentID),
	}
}

// Start opens the profile subscription first so a blocked account is cut off before
// anything else is delivered
func (b *Bridge) Start() {
	b.track(b.sources.Students.Subscribe(b.onStudents))
	if b.stopped.Load() {
		return
	}
	if b.sources.Notifications != nil {
		b.track(b.sources.Notifications(b.studentID).Subscribe(b.onNotifications))
	}
}

// Stop detaches every subscription. Safe to call from inside a callback.
func (b *Bridge) Stop() {
	b.stopped.Store(true)

	b.unsubMu.Lock()
	unsubs := b.unsubs
	b.unsubs = nil
	b.unsubMu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (b *Bridge) track(unsub func()) {
	b.unsubMu.Lock()
	if b.stopped.Load() {
		b.unsubMu.Unlock()
		unsub()
		return
	}
	b.unsubs = append(b.unsubs, unsub)
	b.unsubMu.Unlock()
}

func (b *Bridge) onStudents(students []*models.StudentProfile) {
	if b.stopped.Load() {
		return
	}

	var self *models.StudentProfile
	for _, s := range students {
		if s.ID == b.studentID {
			self = s
			break
		}
	}
	if self == nil {
		b.logger.Debug("Authenticated student missing from push")
		return
	}

	if self.IsBlocked {
		b.logger.Info("Student blocked while online, forcing logout")
		b.Stop()
		b.sink.ForceLogout(ReasonBlocked)
		return
	}

	b.applyMu.Lock()
	defer b.applyMu.Unlock()

	b.sink.ApplyProfile(self.Clone())

	teacher := ""
	if self.TeacherName != nil {
		teacher = *self.TeacherName
	}
	if !b.avatarsLoaded || teacher != b.teacherName {
		b.avatarsLoaded = true
		b.teacherName = teacher
		b.sink.ApplyAvatars(b.lookupAvatars(teacher))
	}
}

func (b *Bridge) onNotifications(items []*models.Notification) {
	if b.stopped.Load() {
		return
	}

	b.applyMu.Lock()
	defer b.applyMu.Unlock()

	b.sink.ApplyNotifications(items, models.CountUnread(items, b.studentID))
}

func (b *Bridge) lookupAvatars(teacherName string) models.AvatarsResponse {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var avatars models.AvatarsResponse

	avatars.Teacher, avatars.TeacherIsInitial = Initial(teacherName), true
	if teacherName != "" && b.sources.Admins != nil {
		if admin, err := b.sources.Admins.GetByUsername(ctx, teacherName); err == nil && admin.Avatar != nil && *admin.Avatar != "" {
			avatars.Teacher, avatars.TeacherIsInitial = *admin.Avatar, false
		} else if err != nil {
			b.logger.Debug("Teacher avatar not found", "teacher", teacherName, "error", err)
		}
	}

	avatars.MainAdmin, avatars.MainAdminIsInitial = Initial(""), true
	if b.sources.Admins != nil {
		if admin, err := b.sources.Admins.GetMain(ctx); err == nil {
			if admin.Avatar != nil && *admin.Avatar != "" {
				avatars.MainAdmin, avatars.MainAdminIsInitial = *admin.Avatar, false
			} else {
				name := admin.DisplayName
				if name == "" {
					name = admin.Username
				}
				avatars.MainAdmin = Initial(name)
			}
		}
	}

	return avatars
}

// Initial returns the uppercase first letter of name, or "?" when name is blank
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
