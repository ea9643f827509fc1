package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campus/internal/model"
)

// EnrollmentRepository defines enrollment persistence operations.
type EnrollmentRepository interface {
	// Create inserts an enrollment. A duplicate (user, course, semester) yields gorm.ErrDuplicatedKey.
	Create(ctx context.Context, enrollment *model.Enrollment) error
	ListStudentIDsBySemester(ctx context.Context, semesterID uuid.UUID) ([]uuid.UUID, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

// ListStudentIDsBySemester returns the distinct STUDENT users holding any enrollment in the semester.
func (r *enrollmentRepository) ListStudentIDsBySemester(ctx context.Context, semesterID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Distinct("enrollments.user_id").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.semester_id = ? AND users.role = ?", semesterID, model.RoleStudent).
		Pluck("enrollments.user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	if err := r.db.WithContext(ctx).Where("course_id = ?", courseID).Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}
