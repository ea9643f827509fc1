package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campus/internal/model"
)

// SessionRepository defines session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	Deactivate(ctx context.Context, tokenHash string) (int64, error)
	ListActiveTokenHashes(ctx context.Context, userID uuid.UUID) ([]string, error)
	DeactivateAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpiredOrInactive(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session row.
func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByTokenHash looks up a session with its user preloaded.
func (r *sessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Preload("User").
		Where("token_hash = ?", tokenHash).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Deactivate clears the active flag of one session and reports the rows touched.
func (r *sessionRepository) Deactivate(ctx context.Context, tokenHash string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("token_hash = ?", tokenHash).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// ListActiveTokenHashes returns the token hashes of a user's active sessions.
func (r *sessionRepository) ListActiveTokenHashes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var hashes []string
	err := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND active = ?", userID, true).
		Pluck("token_hash", &hashes).Error
	return hashes, err
}

// DeactivateAllForUser clears the active flag on every active session of the user.
func (r *sessionRepository) DeactivateAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND active = ?", userID, true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// DeleteExpiredOrInactive removes every session that can no longer authorize a request.
func (r *sessionRepository) DeleteExpiredOrInactive(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR active = ?", now, false).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
