package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

func newStudent(id, name, grade string) *models.StudentProfile {
	return &models.StudentProfile{ID: id, Name: name, Grade: grade, Password: "pw", JoinedAt: time.Now()}
}

func TestStudentRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.Student().Create(ctx, newStudent("s1", "Ani Ani", "9")))
	require.NoError(t, repo.Student().Create(ctx, newStudent("s2", "Budi", "10")))

	found, err := repo.Student().FindByNameAndGrade(ctx, "ANI ani", "9")
	require.NoError(t, err)
	assert.Equal(t, "s1", found.ID)

	_, err = repo.Student().FindByNameAndGrade(ctx, "Ani Ani", "09")
	assert.True(t, repositories.IsNotFoundError(err))

	found.Name = "mutated"
	again, err := repo.Student().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ani Ani", again.Name)

	list, err := repo.Student().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "s2", list[1].ID)

	toggled, err := repo.Student().ToggleBlocked(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, toggled.IsBlocked)

	require.NoError(t, repo.Student().Delete(ctx, "s2"))
	assert.True(t, repositories.IsNotFoundError(repo.Student().Delete(ctx, "s2")))
}

func TestStudentRepository_AddScore(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.Student().Create(ctx, newStudent("s1", "Ani", "9")))

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(delta int) {
			defer wg.Done()
			_, err := repo.Student().AddScore(ctx, "s1", delta)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := repo.Student().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 210, st.Score)

	_, err = repo.Student().AddScore(ctx, "s1", -211)
	assert.ErrorIs(t, err, repositories.ErrScoreNegative)

	_, err = repo.Student().AddScore(ctx, "missing", 5)
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestRepository_WithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.Student().Create(ctx, newStudent("s1", "Ani", "9")))

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.Student().AddScore(ctx, "s1", 50); err != nil {
			return err
		}
		if err := tx.Student().ReplaceAll(ctx, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	st, err := repo.Student().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Score)

	require.NoError(t, repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		_, err := tx.Student().AddScore(ctx, "s1", 7)
		return err
	}))
	st, err = repo.Student().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 7, st.Score)
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	target := "s2"

	require.NoError(t, repo.Notification().Create(ctx, &models.Notification{ID: "n1", Title: "All", Timestamp: time.Now()}))
	require.NoError(t, repo.Notification().Create(ctx, &models.Notification{ID: "n2", Title: "Only s2", Timestamp: time.Now(), TargetStudentID: &target}))

	forS1, err := repo.Notification().ListForStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, forS1, 1)
	assert.Equal(t, "n1", forS1[0].ID)

	forS2, err := repo.Notification().ListForStudent(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, forS2, 2)

	changed, err := repo.Notification().MarkRead(ctx, "n1", "s1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Notification().MarkRead(ctx, "n1", "s1")
	require.NoError(t, err)
	assert.False(t, changed)

	n, err := repo.Notification().GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, []string(n.ReadBy))
}

func TestChatSessionRepository_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	cs := &models.ChatSession{ID: "c1", StudentID: "s1", StartTime: time.Now()}
	require.NoError(t, repo.ChatSession().Save(ctx, cs))

	cs.Messages = append(cs.Messages, models.Message{ID: "m1", Role: models.MessageRoleUser, Text: "hi"})
	require.NoError(t, repo.ChatSession().Save(ctx, cs))

	all, err := repo.ChatSession().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Messages, 1)

	mine, err := repo.ChatSession().ListByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestQuestionAndAdminRepositories(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.Question().UpsertMany(ctx, []*models.QuizQuestion{
		{ID: "q1", Subject: "Math", Question: "1+1", Options: []string{"1", "2"}, CorrectAnswer: 1, Points: 10},
		{ID: "q2", Subject: "Science", Question: "H2O?", Options: []string{"water", "salt"}, CorrectAnswer: 0, Points: 5},
	}))
	require.NoError(t, repo.Question().UpsertMany(ctx, []*models.QuizQuestion{
		{ID: "q1", Subject: "Math", Question: "1+2", Options: []string{"3", "2"}, CorrectAnswer: 0, Points: 10},
	}))

	count, err := repo.Question().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	math, err := repo.Question().ListBySubject(ctx, "Math")
	require.NoError(t, err)
	require.Len(t, math, 1)
	assert.Equal(t, "1+2", math[0].Question)

	require.NoError(t, repo.Admin().Upsert(ctx, &models.AdminAccount{Username: "ms-lee", IsMain: true}))
	main, err := repo.Admin().GetMain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ms-lee", main.Username)

	_, err = repo.Admin().GetByUsername(ctx, "nobody")
	assert.True(t, repositories.IsNotFoundError(err))
}
