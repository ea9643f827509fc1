package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campus/internal/model"
)

// SemesterRepository defines semester persistence operations.
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Semester, error)
	List(ctx context.Context) ([]model.Semester, error)
	ListEnded(ctx context.Context, now time.Time) ([]model.Semester, error)
	FindSuccessor(ctx context.Context, semester *model.Semester) (*model.Semester, error)
}

type semesterRepository struct {
	db *gorm.DB
}

// NewSemesterRepository creates a new semester repository.
func NewSemesterRepository(db *gorm.DB) SemesterRepository {
	return &semesterRepository{db: db}
}

func (r *semesterRepository) Create(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Semester, error) {
	var semester model.Semester
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&semester).Error; err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepository) List(ctx context.Context) ([]model.Semester, error) {
	var semesters []model.Semester
	if err := r.db.WithContext(ctx).Order("start_date").Find(&semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

// ListEnded returns semesters whose end date is before now.
func (r *semesterRepository) ListEnded(ctx context.Context, now time.Time) ([]model.Semester, error) {
	var semesters []model.Semester
	if err := r.db.WithContext(ctx).Where("end_date < ?", now).Order("end_date").Find(&semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

// FindSuccessor returns the earliest semester of the same year starting after semester ends.
// gorm.ErrRecordNotFound means there is none yet.
func (r *semesterRepository) FindSuccessor(ctx context.Context, semester *model.Semester) (*model.Semester, error) {
	var next model.Semester
	err := r.db.WithContext(ctx).
		Where("year = ? AND start_date > ?", semester.Year, semester.EndDate).
		Order("start_date").
		First(&next).Error
	if err != nil {
		return nil, err
	}
	return &next, nil
}
