// Package jobs runs the periodic background work: semester rollover and session cleanup.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SchedulerConfig holds cron specs and per-run timeouts.
type SchedulerConfig struct {
	Timezone               string
	RolloverSchedule       string
	RolloverTimeout        time.Duration
	SessionCleanupSchedule string
	SessionCleanupTimeout  time.Duration
	RunRolloverOnStart     bool
}

// Scheduler wires the jobs into a cron runner.
type Scheduler struct {
	cron     *cron.Cron
	rollover *RolloverJob
	cleanup  *SessionCleanupJob
	cfg      SchedulerConfig
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	startup  sync.WaitGroup
}

// NewScheduler validates the specs and registers both jobs.
func NewScheduler(cfg SchedulerConfig, rollover *RolloverJob, cleanup *SessionCleanupJob, logger *zap.Logger) (*Scheduler, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", tz, err)
	}
	if cfg.RolloverTimeout <= 0 {
		cfg.RolloverTimeout = 5 * time.Minute
	}
	if cfg.SessionCleanupTimeout <= 0 {
		cfg.SessionCleanupTimeout = time.Minute
	}

	cronLogger := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		rollover: rollover,
		cleanup:  cleanup,
		cfg:      cfg,
		logger:   logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(cfg.RolloverSchedule, s.runRollover); err != nil {
		return nil, fmt.Errorf("rollover schedule %q: %w", cfg.RolloverSchedule, err)
	}
	if _, err := s.cron.AddFunc(cfg.SessionCleanupSchedule, s.runCleanup); err != nil {
		return nil, fmt.Errorf("session cleanup schedule %q: %w", cfg.SessionCleanupSchedule, err)
	}
	return s, nil
}

// Start begins the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("rollover_schedule", s.cfg.RolloverSchedule),
		zap.String("session_cleanup_schedule", s.cfg.SessionCleanupSchedule),
	)
	if s.cfg.RunRolloverOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.runRollover()
		}()
	}
}

// Stop cancels in-flight runs, including the startup rollover, and waits for them to
// return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.startup.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runRollover() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RolloverTimeout)
	defer cancel()
	if _, err := s.rollover.Run(ctx); err != nil {
		if errors.Is(err, ErrRolloverInProgress) {
			s.logger.Info("semester rollover skipped, already running")
			return
		}
		s.logger.Error("semester rollover failed", zap.Error(err))
	}
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.SessionCleanupTimeout)
	defer cancel()
	_, _ = s.cleanup.Run(ctx)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
