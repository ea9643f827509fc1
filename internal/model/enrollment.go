package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollment links a student to a course within a semester.
// (user, course, semester) is unique; duplicates are rejected by the store.
type Enrollment struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID `json:"userId" gorm:"type:char(36);not null;uniqueIndex:idx_enrollment_user_course_semester"`
	CourseID   uuid.UUID `json:"courseId" gorm:"type:char(36);not null;uniqueIndex:idx_enrollment_user_course_semester;index"`
	SemesterID uuid.UUID `json:"semesterId" gorm:"type:char(36);not null;uniqueIndex:idx_enrollment_user_course_semester;index"`
	CreatedAt  time.Time `json:"createdAt"`

	User     *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course   *Course   `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Semester *Semester `json:"-" gorm:"foreignKey:SemesterID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
