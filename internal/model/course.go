package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is offered in exactly one semester. The course set of a semester is every course pointing at it.
type Course struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Code       string     `json:"code" gorm:"size:32;not null;uniqueIndex:idx_course_semester_code"`
	Name       string     `json:"name" gorm:"size:255;not null"`
	SemesterID uuid.UUID  `json:"semesterId" gorm:"type:char(36);not null;uniqueIndex:idx_course_semester_code;index"`
	FacultyID  *uuid.UUID `json:"facultyId,omitempty" gorm:"type:char(36);index"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	Semester *Semester `json:"-" gorm:"foreignKey:SemesterID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
