package models

import (
	"time"

	"gorm.io/datatypes"
)

type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleModel MessageRole = "model"
)

// Message is immutable once created.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatSession is a saved transcript of one tutoring conversation. Student fields are a
// snapshot taken at creation and are not kept in sync with later profile edits.
type ChatSession struct {
	ID           string                       `json:"id" gorm:"primaryKey;size:64"`
	StudentID    string                       `json:"studentId" gorm:"not null;index;size:64"`
	StudentName  string                       `json:"studentName" gorm:"size:100"`
	StudentGrade string                       `json:"studentGrade" gorm:"size:20"`
	StartTime    time.Time                    `json:"startTime" gorm:"not null;index"`
	Messages     datatypes.JSONSlice[Message] `json:"messages" gorm:"type:jsonb"`
	EndedAt      *time.Time                   `json:"endedAt,omitempty"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// IsEnded reports whether a newer chat replaced this one.
func (c *ChatSession) IsEnded() bool {
	return c.EndedAt != nil
}

// History returns a copy of the transcript.
func (c *ChatSession) History() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}
