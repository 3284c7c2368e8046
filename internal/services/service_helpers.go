package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/session"
)

// changeNotifier publishes collection change events. Failures are logged only:
// the mutation already committed and subscribers will catch up on the next change.
type changeNotifier struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func (n changeNotifier) notify(ctx context.Context, topic, action string, ids ...string) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishEvent(ctx, events.NewChangeEvent(topic, action, ids...)); err != nil {
		n.logger.Error("Failed to publish change event", "topic", topic, "action", action, "error", err)
	}
}

// mapNotFound converts a repository miss into the given service error
func mapNotFound(err, target error) error {
	if repositories.IsNotFoundError(err) {
		return target
	}
	return err
}

// requireStudent rejects admin sessions for student-only operations
func requireStudent(sess *session.Session) error {
	if sess == nil || !sess.IsStudent() {
		return ErrStudentOnly
	}
	return nil
}

func trimmed(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
