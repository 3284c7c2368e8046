package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

type scriptedTutor struct {
	mu       sync.Mutex
	replies  []string
	err      error
	lastSeen []models.Message
}

func (s *scriptedTutor) Reply(ctx context.Context, history []models.Message, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = history
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestChatConversation(t *testing.T) {
	tutor := &scriptedTutor{replies: []string{"What do you already know?", "Try $x = 2$."}}
	f := newFixture(t, tutor)
	ctx := context.Background()
	chat := f.services.Chat()

	sess := f.loginStudent(t, "Ani", 0)

	_, err := chat.SendMessage(ctx, sess, "hello")
	assert.ErrorIs(t, err, ErrNoActiveChat)

	started, err := chat.StartChat(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Ani", started.StudentName)
	assert.Equal(t, "9", started.StudentGrade)

	_, err = chat.SendMessage(ctx, sess, "solve x+1=3")
	require.NoError(t, err)
	transcript, err := chat.SendMessage(ctx, sess, "is it 2?")
	require.NoError(t, err)

	require.Len(t, transcript.Messages, 4)
	assert.Equal(t, models.MessageRoleUser, transcript.Messages[0].Role)
	assert.Equal(t, models.MessageRoleModel, transcript.Messages[1].Role)
	assert.Equal(t, "Try $x = 2$.", transcript.Messages[3].Text)
	assert.Len(t, tutor.lastSeen, 2)

	stored, err := f.services.Profile().GetSession(ctx, started.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 4)

	t.Run("new chat ends the previous one", func(t *testing.T) {
		next, err := chat.StartChat(ctx, sess)
		require.NoError(t, err)
		assert.NotEqual(t, started.ID, next.ID)

		prev, err := f.services.Profile().GetSession(ctx, started.ID)
		require.NoError(t, err)
		assert.True(t, prev.IsEnded())

		current, err := chat.CurrentChat(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, next.ID, current.ID)
	})
}

func TestChatConcurrentMessagesDoNotInterleave(t *testing.T) {
	tutor := &scriptedTutor{replies: []string{"a", "b", "c", "d"}}
	f := newFixture(t, tutor)
	ctx := context.Background()
	chat := f.services.Chat()

	sess := f.loginStudent(t, "Ani", 0)
	started, err := chat.StartChat(ctx, sess)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := chat.SendMessage(ctx, sess, "question")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.services.Profile().GetSession(ctx, started.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 8)
	for i, msg := range stored.Messages {
		if i%2 == 0 {
			assert.Equal(t, models.MessageRoleUser, msg.Role)
		} else {
			assert.Equal(t, models.MessageRoleModel, msg.Role)
		}
	}
}

func TestChatTutorFailureKeepsStudentMessage(t *testing.T) {
	tutor := &scriptedTutor{err: errors.New("upstream 503")}
	f := newFixture(t, tutor)
	ctx := context.Background()
	chat := f.services.Chat()

	sess := f.loginStudent(t, "Ani", 0)
	started, err := chat.StartChat(ctx, sess)
	require.NoError(t, err)

	_, err = chat.SendMessage(ctx, sess, "help")
	assert.ErrorIs(t, err, ErrTutorUnavailable)

	stored, err := f.services.Profile().GetSession(ctx, started.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "help", stored.Messages[0].Text)
}
