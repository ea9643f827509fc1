package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "campus/internal/errors"
	"campus/internal/model"
	"campus/internal/repository"
)

// AcademicService manages semesters, courses and manual enrollments.
type AcademicService interface {
	CreateSemester(ctx context.Context, name, code string, year int, start, end time.Time) (*model.Semester, error)
	ListSemesters(ctx context.Context) ([]model.Semester, error)
	CreateCourse(ctx context.Context, code, name string, semesterID uuid.UUID, facultyID *uuid.UUID) (*model.Course, error)
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error)
}

type academicService struct {
	users       repository.UserRepository
	semesters   repository.SemesterRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
}

// NewAcademicService creates a new academic service.
func NewAcademicService(
	users repository.UserRepository,
	semesters repository.SemesterRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
) AcademicService {
	return &academicService{
		users:       users,
		semesters:   semesters,
		courses:     courses,
		enrollments: enrollments,
	}
}

// CreateSemester validates start < end before persisting; the store does not check it.
func (s *academicService) CreateSemester(ctx context.Context, name, code string, year int, start, end time.Time) (*model.Semester, error) {
	semester := &model.Semester{
		Name:      name,
		Code:      code,
		Year:      year,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
	}
	if err := semester.Validate(); err != nil {
		return nil, err
	}
	if err := s.semesters.Create(ctx, semester); err != nil {
		return nil, fmt.Errorf("create semester: %w", err)
	}
	return semester, nil
}

func (s *academicService) ListSemesters(ctx context.Context) ([]model.Semester, error) {
	return s.semesters.List(ctx)
}

// CreateCourse adds a course to a semester's course set.
func (s *academicService) CreateCourse(ctx context.Context, code, name string, semesterID uuid.UUID, facultyID *uuid.UUID) (*model.Course, error) {
	if _, err := s.semesters.FindByID(ctx, semesterID); err != nil {
		return nil, fmt.Errorf("find semester: %w", err)
	}
	course := &model.Course{
		Code:       code,
		Name:       name,
		SemesterID: semesterID,
		FacultyID:  facultyID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// Enroll enrolls a student in a course, within the course's semester.
// A repeated enrollment fails with ErrAlreadyExists.
func (s *academicService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*model.Enrollment, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Role != model.RoleStudent {
		return nil, apperrors.ErrNotStudent
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("find course: %w", err)
	}

	enrollment := &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		SemesterID: course.SemesterID,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("enrollment %w", apperrors.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	return enrollment, nil
}
