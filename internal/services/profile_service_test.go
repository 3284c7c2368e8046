package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

func TestCreateStudent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	profiles := f.services.Profile()

	created, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: " Ani ", Grade: "9"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ani", created.Name)
	assert.Equal(t, 0, created.Score)
	assert.False(t, created.IsBlocked)
	assert.False(t, created.JoinedAt.IsZero())
	assert.Len(t, f.publisher.EventsOfType(events.TopicStudentsChanged), 1)

	t.Run("duplicate name is case insensitive", func(t *testing.T) {
		_, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "ANI", Grade: "9"})
		assert.ErrorIs(t, err, ErrDuplicateStudent)
	})

	t.Run("same name in another grade is allowed", func(t *testing.T) {
		_, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "ani", Grade: "10"})
		assert.NoError(t, err)
	})

	t.Run("missing grade fails validation", func(t *testing.T) {
		_, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "Budi"})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "Grade", verrs[0].Field)
	})
}

func TestSaveStudentKeepsStoredScoreAndBlockFlag(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	profiles := f.services.Profile()

	created, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "Ani", Grade: "9", Password: "pw"})
	require.NoError(t, err)
	_, err = profiles.UpdateStudentScore(ctx, created.ID, 40)
	require.NoError(t, err)
	_, err = profiles.ToggleStudentBlockStatus(ctx, created.ID)
	require.NoError(t, err)

	stale := created.Clone()
	stale.Score = 9999
	stale.IsBlocked = false
	avatar := "https://example.com/a.png"
	stale.Avatar = &avatar

	saved, err := profiles.SaveStudent(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, 40, saved.Score)
	assert.True(t, saved.IsBlocked)

	stored, err := profiles.GetStudent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Score)
	assert.True(t, stored.IsBlocked)
	require.NotNil(t, stored.Avatar)
	assert.Equal(t, avatar, *stored.Avatar)
}

func TestUpdateStudentScore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	profiles := f.services.Profile()

	created, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "Ani", Grade: "9"})
	require.NoError(t, err)

	t.Run("concurrent adds all land", func(t *testing.T) {
		deltas := []int{10, 5, 20, 1, 14, 10, 30, 10}
		var wg sync.WaitGroup
		for _, d := range deltas {
			wg.Add(1)
			go func(delta int) {
				defer wg.Done()
				_, err := profiles.UpdateStudentScore(ctx, created.ID, delta)
				assert.NoError(t, err)
			}(d)
		}
		wg.Wait()

		stored, err := profiles.GetStudent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, stored.Score)
	})

	t.Run("negative result is rejected", func(t *testing.T) {
		_, err := profiles.UpdateStudentScore(ctx, created.ID, -101)
		assert.ErrorIs(t, err, ErrNegativeScore)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := profiles.UpdateStudentScore(ctx, "missing", 10)
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})
}

func TestBulkImportStudents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	profiles := f.services.Profile()

	_, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "Existing", Grade: "7"})
	require.NoError(t, err)

	text := "Name,Grade,Password\n" +
		"Ani,9,abc\n" +
		"\n" +
		"Budi,9\n" +
		"existing,7,pw\n" +
		"Citra,,pw\n" +
		"ANI,9,other\n" +
		"Dewi,10,pw\r\n"

	result, err := profiles.BulkImportStudents(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Line 4:")
	assert.Contains(t, result.Errors[1], "Line 5:")
	assert.Contains(t, result.Errors[2], "Line 6:")
	assert.Contains(t, result.Errors[3], "Line 7:")

	students, err := profiles.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 3)

	t.Run("re-importing adds nothing", func(t *testing.T) {
		again, err := profiles.BulkImportStudents(ctx, "Ani,9,abc\nDewi,10,pw\n")
		require.NoError(t, err)
		assert.Equal(t, 0, again.Added)
		assert.Len(t, again.Errors, 2)
	})

	t.Run("header words inside a name are data", func(t *testing.T) {
		res, err := profiles.BulkImportStudents(ctx, "Anamaria Petrova,9,pw\nNomvula Dube,9,pw\nRenamed Kid,9,pw")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Added)
		assert.Empty(t, res.Errors)
	})

	t.Run("localized header is skipped", func(t *testing.T) {
		res, err := profiles.BulkImportStudents(ctx, "Имя,Класс,Пароль\nEka,8,pw")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Added)
		assert.Empty(t, res.Errors)
	})
}

func TestExportRestoreRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	profiles := f.services.Profile()

	student, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "Ani", Grade: "9", Password: "pw"})
	require.NoError(t, err)
	chat := &models.ChatSession{
		ID:          "chat-1",
		StudentID:   student.ID,
		StudentName: student.Name,
		StartTime:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Messages: []models.Message{
			{ID: "m1", Role: models.MessageRoleUser, Text: "hi", Timestamp: time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC)},
		},
	}
	require.NoError(t, profiles.SaveSession(ctx, chat))

	studentsBefore, err := profiles.GetStudents(ctx)
	require.NoError(t, err)
	sessionsBefore, err := profiles.GetAllSessions(ctx)
	require.NoError(t, err)

	data, err := profiles.ExportDatabase(ctx)
	require.NoError(t, err)

	var backup Backup
	require.NoError(t, json.Unmarshal(data, &backup))
	assert.Len(t, backup.Students, 1)
	assert.Len(t, backup.Sessions, 1)

	require.NoError(t, profiles.DeleteStudent(ctx, student.ID))
	require.NoError(t, profiles.DeleteSession(ctx, chat.ID))
	_, err = profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "Transient", Grade: "8"})
	require.NoError(t, err)

	ok, err := profiles.RestoreDatabase(ctx, data)
	require.NoError(t, err)
	assert.True(t, ok)

	studentsAfter, err := profiles.GetStudents(ctx)
	require.NoError(t, err)
	sessionsAfter, err := profiles.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, studentsBefore, studentsAfter)
	assert.Equal(t, sessionsBefore, sessionsAfter)
}

func TestRestoreDatabase(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	profiles := f.services.Profile()

	_, err := profiles.CreateStudent(ctx, &models.StudentCreateRequest{Name: "Ani", Grade: "9"})
	require.NoError(t, err)
	require.NoError(t, profiles.SaveSession(ctx, &models.ChatSession{ID: "keep", StudentID: "x", StartTime: time.Now().UTC()}))

	t.Run("malformed input replaces nothing", func(t *testing.T) {
		ok, err := profiles.RestoreDatabase(ctx, []byte(`{"students": [`))
		require.NoError(t, err)
		assert.False(t, ok)

		students, _ := profiles.GetStudents(ctx)
		assert.Len(t, students, 1)
	})

	t.Run("no collections present", func(t *testing.T) {
		ok, err := profiles.RestoreDatabase(ctx, []byte(`{"timestamp": "2024-01-01T00:00:00Z"}`))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("absent sessions array leaves sessions alone", func(t *testing.T) {
		ok, err := profiles.RestoreDatabase(ctx, []byte(`{"students": []}`))
		require.NoError(t, err)
		assert.True(t, ok)

		students, _ := profiles.GetStudents(ctx)
		assert.Empty(t, students)
		sessions, _ := profiles.GetAllSessions(ctx)
		assert.Len(t, sessions, 1)
	})
}
