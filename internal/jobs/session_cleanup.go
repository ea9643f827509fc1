package jobs

import (
	"context"

	"go.uber.org/zap"

	"campus/internal/metrics"
)

// SessionSweeper deletes sessions that can no longer authorize a request.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SessionCleanupJob purges expired and inactive sessions.
type SessionCleanupJob struct {
	sessions SessionSweeper
	logger   *zap.Logger
}

// NewSessionCleanupJob creates the cleanup job.
func NewSessionCleanupJob(sessions SessionSweeper, logger *zap.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		sessions: sessions,
		logger:   logger.With(zap.String("job", "session_cleanup")),
	}
}

// Name identifies the job in logs and metrics.
func (j *SessionCleanupJob) Name() string { return "session_cleanup" }

// Run performs one sweep and returns the number of deleted sessions.
func (j *SessionCleanupJob) Run(ctx context.Context) (int64, error) {
	deleted, err := j.sessions.Sweep(ctx)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(j.Name(), "error").Inc()
		j.logger.Error("session cleanup failed", zap.Error(err))
		return 0, err
	}
	metrics.JobRunsTotal.WithLabelValues(j.Name(), "success").Inc()
	if deleted > 0 {
		j.logger.Info("session cleanup removed sessions", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
