package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus/internal/model"
)

// AttendanceFilter narrows attendance reads. Nil fields are ignored.
type AttendanceFilter struct {
	UserID     *uuid.UUID
	CourseID   *uuid.UUID
	SemesterID *uuid.UUID
}

// AttendanceRepository defines attendance persistence operations.
type AttendanceRepository interface {
	Upsert(ctx context.Context, record *model.Attendance) error
	List(ctx context.Context, filter AttendanceFilter) ([]model.Attendance, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert writes one record per (user, course, date). Course-bound records rely on the unique
// index; records without a course cannot, since NULLs never collide, so they are found first.
func (r *attendanceRepository) Upsert(ctx context.Context, record *model.Attendance) error {
	record.Date = model.Day(record.Date)

	if record.CourseID != nil {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "semester_id", "marked_by", "updated_at"}),
		}).Create(record).Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Attendance
		err := tx.Where("user_id = ? AND course_id IS NULL AND date = ?", record.UserID, record.Date).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(record).Error
		}
		if err != nil {
			return err
		}
		existing.Status = record.Status
		existing.SemesterID = record.SemesterID
		existing.MarkedBy = record.MarkedBy
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*record = existing
		return nil
	})
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]model.Attendance, error) {
	q := r.db.WithContext(ctx).Model(&model.Attendance{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.CourseID != nil {
		q = q.Where("course_id = ?", *filter.CourseID)
	}
	if filter.SemesterID != nil {
		q = q.Where("semester_id = ?", *filter.SemesterID)
	}

	var records []model.Attendance
	if err := q.Order("date").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
