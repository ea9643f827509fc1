package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionState is the lifecycle state of a session at a given instant.
type SessionState int

const (
	// SessionActive sessions authorize requests.
	SessionActive SessionState = iota
	// SessionRevoked sessions were invalidated by logout or logout-all.
	SessionRevoked
	// SessionExpired sessions are past their persisted expiry.
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionRevoked:
		return "revoked"
	case SessionExpired:
		return "expired"
	}
	return "unknown"
}

// Session is the server-side record of one issued bearer token.
// Only the sha256 of the token is persisted.
type Session struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	TokenHash string    `json:"-" gorm:"type:char(64);uniqueIndex;not null"`
	TokenID   string    `json:"-" gorm:"size:64;index"`
	UserID    uuid.UUID `json:"userId" gorm:"type:char(36);not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	Active    bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// State classifies the session at now. Revocation wins over expiry.
func (s *Session) State(now time.Time) SessionState {
	if !s.Active {
		return SessionRevoked
	}
	if !s.ExpiresAt.After(now) {
		return SessionExpired
	}
	return SessionActive
}

// BeforeCreate sets UUID before creating the record.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
