package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
)

type Attachment struct {
	URL  string         `json:"url"`
	Type AttachmentType `json:"type"`
}

// Notification is a broadcast (TargetStudentID nil) or a message for one student.
// Students only ever add themselves to ReadBy.
type Notification struct {
	ID              string                      `json:"id" gorm:"primaryKey;size:64"`
	Title           string                      `json:"title" gorm:"not null;size:200"`
	Message         string                      `json:"message" gorm:"type:text"`
	Attachment      *Attachment                 `json:"attachment,omitempty" gorm:"serializer:json;type:jsonb"`
	Timestamp       time.Time                   `json:"timestamp" gorm:"not null;index"`
	ReadBy          datatypes.JSONSlice[string] `json:"readBy" gorm:"type:jsonb"`
	TargetStudentID *string                     `json:"targetStudentId,omitempty" gorm:"index;size:64"`
}

func (Notification) TableName() string {
	return "notifications"
}

// IsReadBy reports whether the student acknowledged the notification.
func (n *Notification) IsReadBy(studentID string) bool {
	return slices.Contains(n.ReadBy, studentID)
}

// RelevantTo reports whether the notification is shown to the student.
func (n *Notification) RelevantTo(studentID string) bool {
	return n.TargetStudentID == nil || *n.TargetStudentID == studentID
}

// CountUnread counts notifications whose ReadBy set excludes the student.
func CountUnread(notifications []*Notification, studentID string) int {
	unread := 0
	for _, n := range notifications {
		if !n.IsReadBy(studentID) {
			unread++
		}
	}
	return unread
}
