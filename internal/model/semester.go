package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidSemesterDates is returned when a semester does not start before it ends.
var ErrInvalidSemesterDates = errors.New("semester start date must be before end date")

// Semester is an academic term. Successors are computed, never stored.
type Semester struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Code      string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Year      int       `json:"year" gorm:"not null;index"`
	StartDate time.Time `json:"startDate" gorm:"not null;index"`
	EndDate   time.Time `json:"endDate" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the start < end invariant.
func (s *Semester) Validate() error {
	if !s.StartDate.Before(s.EndDate) {
		return ErrInvalidSemesterDates
	}
	return nil
}

// Ended reports whether the semester end date is strictly before now.
func (s *Semester) Ended(now time.Time) bool {
	return s.EndDate.Before(now)
}

// BeforeCreate sets UUID before creating the record.
func (s *Semester) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
