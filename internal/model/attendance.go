package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceStatus represents the outcome recorded for one day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// Attendance is one record per (user, course, date). CourseID is nil for attendance
// not tied to a course, e.g. faculty presence.
type Attendance struct {
	ID         uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID        `json:"userId" gorm:"type:char(36);not null;uniqueIndex:idx_attendance_user_course_date"`
	CourseID   *uuid.UUID       `json:"courseId,omitempty" gorm:"type:char(36);uniqueIndex:idx_attendance_user_course_date"`
	SemesterID *uuid.UUID       `json:"semesterId,omitempty" gorm:"type:char(36);index"`
	Date       time.Time        `json:"date" gorm:"type:date;not null;uniqueIndex:idx_attendance_user_course_date"`
	Status     AttendanceStatus `json:"status" gorm:"type:varchar(10);not null"`
	MarkedBy   *uuid.UUID       `json:"markedBy,omitempty" gorm:"type:char(36)"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`

	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course *Course `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Day truncates t to midnight UTC, the granularity attendance is stored at.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
