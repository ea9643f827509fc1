package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"campus/internal/analytics"
	apperrors "campus/internal/errors"
	"campus/internal/model"
	"campus/internal/repository"
)

// MarkAttendanceInput describes one attendance mark.
type MarkAttendanceInput struct {
	UserID     uuid.UUID
	CourseID   *uuid.UUID
	SemesterID *uuid.UUID
	Date       time.Time
	Status     model.AttendanceStatus
}

// StudentReport is one user's aggregated attendance.
type StudentReport struct {
	UserID    uuid.UUID           `json:"userId"`
	FirstName string              `json:"firstName,omitempty"`
	LastName  string              `json:"lastName,omitempty"`
	Summary   analytics.Summary   `json:"summary"`
	Risk      analytics.RiskLevel `json:"risk"`
}

// CourseReport aggregates a course overall and per enrolled student.
type CourseReport struct {
	CourseID uuid.UUID           `json:"courseId"`
	Overall  analytics.Summary   `json:"overall"`
	Risk     analytics.RiskLevel `json:"risk"`
	Students []StudentReport     `json:"students"`
}

// AttendanceService marks attendance and serves every aggregated read path.
type AttendanceService interface {
	Mark(ctx context.Context, markedBy uuid.UUID, in MarkAttendanceInput) (*model.Attendance, error)
	StudentSummary(ctx context.Context, userID uuid.UUID, semesterID *uuid.UUID) (*StudentReport, error)
	CourseSummary(ctx context.Context, courseID uuid.UUID) (*CourseReport, error)
	AtRisk(ctx context.Context, semesterID *uuid.UUID) ([]StudentReport, error)
}

type attendanceService struct {
	attendance  repository.AttendanceRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
}

// NewAttendanceService creates a new attendance service.
func NewAttendanceService(
	attendance repository.AttendanceRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	users repository.UserRepository,
) AttendanceService {
	return &attendanceService{
		attendance:  attendance,
		courses:     courses,
		enrollments: enrollments,
		users:       users,
	}
}

// Mark records a status for (user, course, day), replacing an earlier mark for the same key.
func (s *attendanceService) Mark(ctx context.Context, markedBy uuid.UUID, in MarkAttendanceInput) (*model.Attendance, error) {
	if !in.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	semesterID := in.SemesterID
	if in.CourseID != nil && semesterID == nil {
		course, err := s.courses.FindByID(ctx, *in.CourseID)
		if err != nil {
			return nil, fmt.Errorf("find course: %w", err)
		}
		semesterID = &course.SemesterID
	}

	record := &model.Attendance{
		UserID:     in.UserID,
		CourseID:   in.CourseID,
		SemesterID: semesterID,
		Date:       model.Day(in.Date),
		Status:     in.Status,
		MarkedBy:   &markedBy,
	}
	if err := s.attendance.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	return record, nil
}

// StudentSummary aggregates one user's attendance, optionally within a semester.
func (s *attendanceService) StudentSummary(ctx context.Context, userID uuid.UUID, semesterID *uuid.UUID) (*StudentReport, error) {
	records, err := s.attendance.List(ctx, repository.AttendanceFilter{UserID: &userID, SemesterID: semesterID})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	summary := analytics.Aggregate(records)
	return &StudentReport{UserID: userID, Summary: summary, Risk: summary.Risk()}, nil
}

// CourseSummary aggregates a course. Enrolled students without records appear with an empty summary.
func (s *attendanceService) CourseSummary(ctx context.Context, courseID uuid.UUID) (*CourseReport, error) {
	records, err := s.attendance.List(ctx, repository.AttendanceFilter{CourseID: &courseID})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	perUser := analytics.AggregateByUser(records)
	for _, e := range enrollments {
		if _, ok := perUser[e.UserID]; !ok {
			perUser[e.UserID] = analytics.Summary{}
		}
	}

	students, err := s.reports(ctx, perUser)
	if err != nil {
		return nil, err
	}
	overall := analytics.Aggregate(records)
	return &CourseReport{
		CourseID: courseID,
		Overall:  overall,
		Risk:     overall.Risk(),
		Students: students,
	}, nil
}

// AtRisk lists users whose attendance is below the at-risk threshold. Users without
// any record are not judged.
func (s *attendanceService) AtRisk(ctx context.Context, semesterID *uuid.UUID) ([]StudentReport, error) {
	records, err := s.attendance.List(ctx, repository.AttendanceFilter{SemesterID: semesterID})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	atRisk := make(map[uuid.UUID]analytics.Summary)
	for userID, summary := range analytics.AggregateByUser(records) {
		if summary.Total > 0 && analytics.AtRisk(summary.Percentage) {
			atRisk[userID] = summary
		}
	}
	return s.reports(ctx, atRisk)
}

// reports attaches names and sorts by ascending percentage, then name.
func (s *attendanceService) reports(ctx context.Context, perUser map[uuid.UUID]analytics.Summary) ([]StudentReport, error) {
	ids := make([]uuid.UUID, 0, len(perUser))
	for id := range perUser {
		ids = append(ids, id)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	byID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]StudentReport, 0, len(perUser))
	for id, summary := range perUser {
		u, ok := byID[id]
		if ok && u.Role != model.RoleStudent {
			continue
		}
		out = append(out, StudentReport{
			UserID:    id,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Summary:   summary,
			Risk:      summary.Risk(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Summary.Percentage != out[j].Summary.Percentage {
			return out[i].Summary.Percentage < out[j].Summary.Percentage
		}
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out, nil
}
