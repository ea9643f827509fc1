package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campus/internal/model"
)

// CourseRepository defines course persistence operations.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	ListBySemester(ctx context.Context, semesterID uuid.UUID) ([]model.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// ListBySemester returns the course set of a semester.
func (r *courseRepository) ListBySemester(ctx context.Context, semesterID uuid.UUID) ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.WithContext(ctx).Where("semester_id = ?", semesterID).Order("code").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}
