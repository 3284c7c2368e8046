package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Exporter produces a JSON backup of students and chat sessions
type Exporter interface {
	ExportDatabase(ctx context.Context) ([]byte, error)
}

// BackupJob writes a timestamped backup file into a directory
type BackupJob struct {
	exporter Exporter
	dir      string
	logger   *slog.Logger
	now      func() time.Time
}

func NewBackupJob(exporter Exporter, dir string, logger *slog.Logger) *BackupJob {
	return &BackupJob{
		exporter: exporter,
		dir:      dir,
		logger:   logger,
		now:      time.Now,
	}
}

// Run writes one backup and returns its path
func (j *BackupJob) Run(ctx context.Context) (string, error) {
	data, err := j.exporter.ExportDatabase(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export database: %w", err)
	}

	if err := os.MkdirAll(j.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := fmt.Sprintf("backup_%s.json", j.now().UTC().Format("20060102_150405"))
	path := filepath.Join(j.dir, name)

	// readers only ever see complete files
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to finalize backup: %w", err)
	}

	return path, nil
}

// Scheduler runs the backup job on a cron schedule
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler registers job under schedule, e.g. "@daily" or "0 3 * * *"
func NewScheduler(schedule string, job *BackupJob, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		logger.Info("Running scheduled backup")
		path, err := job.Run(ctx)
		if err != nil {
			logger.Error("Scheduled backup failed", "error", err)
			return
		}
		logger.Info("Scheduled backup written", "path", path)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Backup scheduler started")
}

// Stop waits for a running backup to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Backup scheduler stop timed out")
	}
}
