package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/internal/analytics"
	apperrors "campus/internal/errors"
	"campus/internal/model"
	"campus/internal/repository/repotest"
)

type academicFixture struct {
	store      *repotest.Store
	academic   AcademicService
	attendance AttendanceService
	faculty    *model.User
	semester   *model.Semester
	course     *model.Course
}

func newAcademicFixture(t *testing.T) *academicFixture {
	t.Helper()
	store := repotest.NewStore()
	f := &academicFixture{
		store:      store,
		academic:   NewAcademicService(store.Users(), store.Semesters(), store.Courses(), store.Enrollments()),
		attendance: NewAttendanceService(store.Attendance(), store.Courses(), store.Enrollments(), store.Users()),
		faculty:    seedUser(t, store, model.RoleFaculty, "prof@campus.test"),
	}

	ctx := context.Background()
	var err error
	f.semester, err = f.academic.CreateSemester(ctx, "Spring", "2024-S1", 2024,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	f.course, err = f.academic.CreateCourse(ctx, "CS101", "Programming", f.semester.ID, &f.faculty.ID)
	require.NoError(t, err)
	return f
}

func (f *academicFixture) mark(t *testing.T, userID uuid.UUID, day int, status model.AttendanceStatus) {
	t.Helper()
	_, err := f.attendance.Mark(context.Background(), f.faculty.ID, MarkAttendanceInput{
		UserID:   userID,
		CourseID: &f.course.ID,
		Date:     time.Date(2024, 2, day, 9, 30, 0, 0, time.UTC),
		Status:   status,
	})
	require.NoError(t, err)
}

func TestAcademicService_CreateSemesterRejectsInvertedDates(t *testing.T) {
	f := newAcademicFixture(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.academic.CreateSemester(context.Background(), "Empty", "X", 2024, day, day)
	assert.ErrorIs(t, err, model.ErrInvalidSemesterDates)
}

func TestAcademicService_Enroll(t *testing.T) {
	f := newAcademicFixture(t)
	ctx := context.Background()
	student := seedUser(t, f.store, model.RoleStudent, "s@campus.test")

	enrollment, err := f.academic.Enroll(ctx, student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, f.semester.ID, enrollment.SemesterID)

	_, err = f.academic.Enroll(ctx, student.ID, f.course.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	_, err = f.academic.Enroll(ctx, f.faculty.ID, f.course.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotStudent)
	assert.Equal(t, 1, f.store.EnrollmentCount())
}

func TestAttendanceService_MarkReplacesSameDay(t *testing.T) {
	f := newAcademicFixture(t)
	student := seedUser(t, f.store, model.RoleStudent, "s@campus.test")

	f.mark(t, student.ID, 5, model.AttendanceAbsent)
	f.mark(t, student.ID, 5, model.AttendancePresent)

	report, err := f.attendance.StudentSummary(context.Background(), student.ID, &f.semester.ID)
	require.NoError(t, err)
	assert.Equal(t, analytics.Summary{Total: 1, Present: 1, Percentage: 100}, report.Summary)
	assert.Equal(t, analytics.RiskLow, report.Risk)
}

func TestAttendanceService_MarkRejectsUnknownStatus(t *testing.T) {
	f := newAcademicFixture(t)
	_, err := f.attendance.Mark(context.Background(), f.faculty.ID, MarkAttendanceInput{
		UserID: uuid.New(),
		Date:   time.Now(),
		Status: model.AttendanceStatus("EXCUSED"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestAttendanceService_CourseSummaryAndAtRisk(t *testing.T) {
	f := newAcademicFixture(t)
	ctx := context.Background()

	good := seedUser(t, f.store, model.RoleStudent, "good@campus.test")
	poor := seedUser(t, f.store, model.RoleStudent, "poor@campus.test")
	silent := seedUser(t, f.store, model.RoleStudent, "silent@campus.test")
	for _, u := range []*model.User{good, poor, silent} {
		_, err := f.academic.Enroll(ctx, u.ID, f.course.ID)
		require.NoError(t, err)
	}

	for day := 1; day <= 4; day++ {
		f.mark(t, good.ID, day, model.AttendancePresent)
	}
	f.mark(t, poor.ID, 1, model.AttendancePresent)
	f.mark(t, poor.ID, 2, model.AttendanceAbsent)
	f.mark(t, poor.ID, 3, model.AttendanceLate)

	report, err := f.attendance.CourseSummary(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Overall.Total)
	assert.Equal(t, 5, report.Overall.Present)
	require.Len(t, report.Students, 3)
	assert.Equal(t, silent.ID, report.Students[0].UserID)
	assert.Zero(t, report.Students[0].Summary.Total)
	assert.Equal(t, poor.ID, report.Students[1].UserID)
	assert.Equal(t, 33.33, report.Students[1].Summary.Percentage)
	assert.Equal(t, good.ID, report.Students[2].UserID)

	atRisk, err := f.attendance.AtRisk(ctx, &f.semester.ID)
	require.NoError(t, err)
	require.Len(t, atRisk, 1)
	assert.Equal(t, poor.ID, atRisk[0].UserID)
	assert.Equal(t, analytics.RiskHigh, atRisk[0].Risk)
}
