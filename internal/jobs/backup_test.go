package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExporter struct {
	data []byte
	err  error
}

func (s stubExporter) ExportDatabase(context.Context) ([]byte, error) {
	return s.data, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBackupJobRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	job := NewBackupJob(stubExporter{data: []byte(`{"students":[]}`)}, dir, quietLogger())
	job.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }

	path, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_20240309_140500.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"students":[]}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupJobExportFailure(t *testing.T) {
	dir := t.TempDir()
	job := NewBackupJob(stubExporter{err: errors.New("db down")}, dir, quietLogger())

	_, err := job.Run(context.Background())
	assert.ErrorContains(t, err, "db down")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	job := NewBackupJob(stubExporter{}, t.TempDir(), quietLogger())

	_, err := NewScheduler("every tuesday", job, quietLogger())
	assert.Error(t, err)

	s, err := NewScheduler("@daily", job, quietLogger())
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())
}
