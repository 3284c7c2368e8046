package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "tutor-service"
	eventVersion = "1.0"
)

// Topics carry change notifications for one collection each
const (
	TopicStudentsChanged      = "students.changed"
	TopicSessionsChanged      = "sessions.changed"
	TopicNotificationsChanged = "notifications.changed"
)

// Topics lists every topic the realtime hub listens on
var Topics = []string{TopicStudentsChanged, TopicSessionsChanged, TopicNotificationsChanged}

// Event is the envelope published on every topic
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ChangeData describes which records a change touched. Empty IDs means the whole
// collection was replaced.
type ChangeData struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids,omitempty"`
}

// Change actions
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionReplaced = "replaced"
)

// NewEvent builds an envelope with a fresh id and timestamp
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NewChangeEvent builds a collection change event; the event type doubles as the topic
func NewChangeEvent(topic, action string, ids ...string) *Event {
	return NewEvent(topic, ChangeData{Action: action, IDs: ids})
}

// EventPublisher publishes domain events
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *Event) error
	Close() error
}
