package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type chatSessionRepository struct {
	r *Repository
}

func cloneSession(cs *models.ChatSession) *models.ChatSession {
	c := *cs
	if cs.Messages != nil {
		c.Messages = append(c.Messages[:0:0], cs.Messages...)
	}
	if cs.EndedAt != nil {
		t := *cs.EndedAt
		c.EndedAt = &t
	}
	return &c
}

func (c *chatSessionRepository) Save(ctx context.Context, session *models.ChatSession) error {
	defer c.r.lock()()

	for i, cs := range c.r.store.sessions {
		if cs.ID == session.ID {
			c.r.store.sessions[i] = cloneSession(session)
			return nil
		}
	}
	c.r.store.sessions = append(c.r.store.sessions, cloneSession(session))
	return nil
}

func (c *chatSessionRepository) GetByID(ctx context.Context, id string) (*models.ChatSession, error) {
	defer c.r.lock()()

	for _, cs := range c.r.store.sessions {
		if cs.ID == id {
			return cloneSession(cs), nil
		}
	}
	return nil, fmt.Errorf("chat session %s: %w", id, repositories.ErrNotFound)
}

func (c *chatSessionRepository) List(ctx context.Context) ([]*models.ChatSession, error) {
	defer c.r.lock()()

	out := make([]*models.ChatSession, 0, len(c.r.store.sessions))
	for _, cs := range c.r.store.sessions {
		out = append(out, cloneSession(cs))
	}
	return out, nil
}

func (c *chatSessionRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.ChatSession, error) {
	defer c.r.lock()()

	var out []*models.ChatSession
	for _, cs := range c.r.store.sessions {
		if cs.StudentID == studentID {
			out = append(out, cloneSession(cs))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (c *chatSessionRepository) Delete(ctx context.Context, id string) error {
	defer c.r.lock()()

	for i, cs := range c.r.store.sessions {
		if cs.ID == id {
			c.r.store.sessions = append(c.r.store.sessions[:i:i], c.r.store.sessions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("chat session %s: %w", id, repositories.ErrNotFound)
}

func (c *chatSessionRepository) ReplaceAll(ctx context.Context, sessions []*models.ChatSession) error {
	defer c.r.lock()()

	replaced := make([]*models.ChatSession, 0, len(sessions))
	for _, cs := range sessions {
		replaced = append(replaced, cloneSession(cs))
	}
	c.r.store.sessions = replaced
	return nil
}
