package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus/internal/cache"
	"campus/internal/metrics"
	"campus/internal/model"
	"campus/internal/repository"
)

const rolloverLeaseKey = "jobs:semester-rollover"

// ErrRolloverInProgress is returned when another run holds the rollover lock.
var ErrRolloverInProgress = errors.New("semester rollover already running")

// RolloverReport summarizes one rollover run.
type RolloverReport struct {
	SemestersChecked int
	SemestersRolled  int
	Created          int
	Skipped          int
	Failed           int
}

// RolloverJob enrolls the students of every ended semester into all courses of its successor.
// Runs are idempotent: existing enrollments are skipped through the store's uniqueness.
type RolloverJob struct {
	semesters   repository.SemesterRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	lease       *cache.Client
	leaseTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time

	mu sync.Mutex
}

// NewRolloverJob creates the job. lease may be nil, leaving only the in-process lock.
func NewRolloverJob(
	semesters repository.SemesterRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	lease *cache.Client,
	leaseTTL time.Duration,
	logger *zap.Logger,
) *RolloverJob {
	if leaseTTL <= 0 {
		leaseTTL = 10 * time.Minute
	}
	return &RolloverJob{
		semesters:   semesters,
		courses:     courses,
		enrollments: enrollments,
		lease:       lease,
		leaseTTL:    leaseTTL,
		logger:      logger.With(zap.String("job", "semester_rollover")),
		now:         time.Now,
	}
}

// Name identifies the job in logs and metrics.
func (j *RolloverJob) Name() string { return "semester_rollover" }

// Run performs one rollover pass. Per-enrollment failures are logged and counted; only a
// failure to read the semester list or to take the lock aborts the run.
func (j *RolloverJob) Run(ctx context.Context) (RolloverReport, error) {
	var report RolloverReport

	if !j.mu.TryLock() {
		metrics.JobRunsTotal.WithLabelValues(j.Name(), "skipped").Inc()
		return report, ErrRolloverInProgress
	}
	defer j.mu.Unlock()

	owner := uuid.NewString()
	acquired, err := j.lease.Acquire(ctx, rolloverLeaseKey, owner, j.leaseTTL)
	switch {
	case err != nil:
		j.logger.Warn("rollover lease unavailable, continuing with local lock", zap.Error(err))
	case !acquired:
		metrics.JobRunsTotal.WithLabelValues(j.Name(), "skipped").Inc()
		return report, ErrRolloverInProgress
	default:
		defer func() {
			if err := j.lease.Release(context.WithoutCancel(ctx), rolloverLeaseKey, owner); err != nil {
				j.logger.Warn("rollover lease release failed", zap.Error(err))
			}
		}()
	}

	now := j.now().UTC()
	ended, err := j.semesters.ListEnded(ctx, now)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(j.Name(), "error").Inc()
		return report, fmt.Errorf("list ended semesters: %w", err)
	}

	for i := range ended {
		if err := ctx.Err(); err != nil {
			metrics.JobRunsTotal.WithLabelValues(j.Name(), "error").Inc()
			return report, err
		}
		report.SemestersChecked++
		if j.rollSemester(ctx, &ended[i], &report) {
			report.SemestersRolled++
		}
	}

	metrics.RolloverEnrollmentsTotal.WithLabelValues("created").Add(float64(report.Created))
	metrics.RolloverEnrollmentsTotal.WithLabelValues("skipped").Add(float64(report.Skipped))
	metrics.RolloverEnrollmentsTotal.WithLabelValues("failed").Add(float64(report.Failed))
	metrics.JobRunsTotal.WithLabelValues(j.Name(), "success").Inc()

	j.logger.Info("semester rollover finished",
		zap.Int("semesters_checked", report.SemestersChecked),
		zap.Int("semesters_rolled", report.SemestersRolled),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// rollSemester carries one semester's students forward. It reports whether a successor was found.
func (j *RolloverJob) rollSemester(ctx context.Context, semester *model.Semester, report *RolloverReport) bool {
	log := j.logger.With(zap.String("semester_id", semester.ID.String()), zap.String("semester_code", semester.Code))

	students, err := j.enrollments.ListStudentIDsBySemester(ctx, semester.ID)
	if err != nil {
		log.Error("list semester students failed", zap.Error(err))
		report.Failed++
		return false
	}
	if len(students) == 0 {
		return false
	}

	next, err := j.semesters.FindSuccessor(ctx, semester)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info("no successor semester, skipping")
		return false
	}
	if err != nil {
		log.Error("find successor semester failed", zap.Error(err))
		report.Failed++
		return false
	}

	courses, err := j.courses.ListBySemester(ctx, next.ID)
	if err != nil {
		log.Error("list successor courses failed", zap.Error(err), zap.String("successor_id", next.ID.String()))
		report.Failed++
		return false
	}

	for _, studentID := range students {
		for _, course := range courses {
			enrollment := &model.Enrollment{
				UserID:     studentID,
				CourseID:   course.ID,
				SemesterID: next.ID,
			}
			err := j.enrollments.Create(ctx, enrollment)
			switch {
			case err == nil:
				report.Created++
			case errors.Is(err, gorm.ErrDuplicatedKey):
				report.Skipped++
			default:
				report.Failed++
				log.Error("rollover enrollment failed",
					zap.Error(err),
					zap.String("user_id", studentID.String()),
					zap.String("course_id", course.ID.String()),
				)
			}
		}
	}
	return true
}
