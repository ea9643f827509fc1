package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus/internal/auth"
	apperrors "campus/internal/errors"
	"campus/internal/metrics"
	"campus/internal/model"
	"campus/internal/repository"
)

// SessionService is the session store: one row per issued bearer token.
type SessionService interface {
	Create(ctx context.Context, userID uuid.UUID, token, tokenID string, expiresAt time.Time) (*model.Session, error)
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	Invalidate(ctx context.Context, token string) error
	InvalidateAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Sweep(ctx context.Context) (int64, error)
}

type sessionService struct {
	repo   repository.SessionRepository
	cache  auth.SessionCacheInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService creates a session store over the repository with a lookup cache.
func NewSessionService(repo repository.SessionRepository, cache auth.SessionCacheInterface, logger *zap.Logger) SessionService {
	return &sessionService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Create inserts a new active session. Users may hold any number of them.
func (s *sessionService) Create(ctx context.Context, userID uuid.UUID, token, tokenID string, expiresAt time.Time) (*model.Session, error) {
	session := &model.Session{
		TokenHash: auth.HashToken(token),
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		Active:    true,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// FindByToken returns the session for a token with its user, or ErrSessionNotFound.
func (s *sessionService) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	hash := auth.HashToken(token)

	if cached, err := s.cache.Get(ctx, hash); err == nil && cached != nil {
		return cached, nil
	}

	session, err := s.repo.FindByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	if session.State(s.now()) == model.SessionActive {
		if err := s.cache.Put(ctx, hash, session); err != nil {
			s.logger.Warn("session cache put failed", zap.Error(err))
		}
	}
	return session, nil
}

// Invalidate deactivates exactly one session.
func (s *sessionService) Invalidate(ctx context.Context, token string) error {
	hash := auth.HashToken(token)
	rows, err := s.repo.Deactivate(ctx, hash)
	if err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	_ = s.cache.Revoke(ctx, hash)
	if rows == 0 {
		return apperrors.ErrSessionNotFound
	}
	metrics.SessionsInvalidatedTotal.WithLabelValues("single").Inc()
	return nil
}

// InvalidateAllForUser deactivates every active session the user owns.
func (s *sessionService) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	hashes, err := s.repo.ListActiveTokenHashes(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	rows, err := s.repo.DeactivateAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("invalidate sessions: %w", err)
	}
	_ = s.cache.Revoke(ctx, hashes...)

	metrics.SessionsInvalidatedTotal.WithLabelValues("user").Add(float64(rows))
	s.logger.Info("sessions invalidated",
		zap.String("user_id", userID.String()),
		zap.Int64("count", rows),
	)
	return rows, nil
}

// Sweep deletes sessions that are expired or inactive.
func (s *sessionService) Sweep(ctx context.Context) (int64, error) {
	rows, err := s.repo.DeleteExpiredOrInactive(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	metrics.SessionsSweptTotal.Add(float64(rows))
	return rows, nil
}
