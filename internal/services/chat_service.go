package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/tutor-service/internal/llm"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/session"
)

type chatService struct {
	profiles ProfileService
	tutor    llm.Tutor
	logger   *slog.Logger
}

func NewChatService(profiles ProfileService, tutor llm.Tutor, logger *slog.Logger) ChatService {
	return &chatService{
		profiles: profiles,
		tutor:    tutor,
		logger:   logger,
	}
}

// StartChat ends the session's previous chat and opens a new transcript with a
// snapshot of the student's name and grade.
func (s *chatService) StartChat(ctx context.Context, sess *session.Session) (*models.ChatSession, error) {
	if err := requireStudent(sess); err != nil {
		return nil, err
	}
	profile := sess.Profile()
	if profile == nil {
		return nil, ErrStudentNotFound
	}

	unlock := sess.LockChat()
	defer unlock()

	if prevID := sess.Snapshot().ChatSessionID; prevID != "" {
		s.endChat(ctx, prevID)
	}

	chat := &models.ChatSession{
		ID:           uuid.NewString(),
		StudentID:    profile.ID,
		StudentName:  profile.Name,
		StudentGrade: profile.Grade,
		StartTime:    time.Now().UTC(),
		Messages:     []models.Message{},
	}
	if err := s.profiles.SaveSession(ctx, chat); err != nil {
		return nil, err
	}

	_ = sess.Do(func(st *session.State) error {
		st.ChatSessionID = chat.ID
		return nil
	})

	s.logger.Info("Chat started", "student_id", profile.ID, "chat_id", chat.ID)
	return chat, nil
}

func (s *chatService) endChat(ctx context.Context, id string) {
	prev, err := s.profiles.GetSession(ctx, id)
	if err != nil {
		// deleted by an admin in the meantime
		return
	}
	if prev.IsEnded() {
		return
	}
	now := time.Now().UTC()
	prev.EndedAt = &now
	if err := s.profiles.SaveSession(ctx, prev); err != nil {
		s.logger.Error("Failed to end previous chat", "chat_id", id, "error", err)
	}
}

// SendMessage appends the student's message and the tutor's reply. When the tutor fails
// the student's message is still saved and ErrTutorUnavailable is returned.
func (s *chatService) SendMessage(ctx context.Context, sess *session.Session, text string) (*models.ChatSession, error) {
	if err := requireStudent(sess); err != nil {
		return nil, err
	}
	// one in-flight exchange per session so transcripts never interleave
	unlock := sess.LockChat()
	defer unlock()

	chatID := sess.Snapshot().ChatSessionID
	if chatID == "" {
		return nil, ErrNoActiveChat
	}

	chat, err := s.profiles.GetSession(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.IsEnded() {
		return nil, ErrChatEnded
	}

	history := chat.History()
	chat.Messages = append(chat.Messages, newMessage(models.MessageRoleUser, text))

	var tutorErr error
	if s.tutor == nil {
		tutorErr = llm.ErrNotConfigured
	} else {
		var reply string
		reply, tutorErr = s.tutor.Reply(ctx, history, text)
		if tutorErr == nil {
			chat.Messages = append(chat.Messages, newMessage(models.MessageRoleModel, reply))
		}
	}

	if err := s.profiles.SaveSession(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}

	if tutorErr != nil {
		s.logger.Error("Tutor reply failed", "chat_id", chatID, "error", tutorErr)
		return chat, ErrTutorUnavailable
	}
	return chat, nil
}

func (s *chatService) CurrentChat(ctx context.Context, sess *session.Session) (*models.ChatSession, error) {
	if err := requireStudent(sess); err != nil {
		return nil, err
	}
	chatID := sess.Snapshot().ChatSessionID
	if chatID == "" {
		return nil, ErrNoActiveChat
	}
	return s.profiles.GetSession(ctx, chatID)
}

func newMessage(role models.MessageRole, text string) models.Message {
	return models.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}
