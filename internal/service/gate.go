package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campus/internal/auth"
	apperrors "campus/internal/errors"
	"campus/internal/metrics"
	"campus/internal/model"
)

// FailureReason names the branch of the gate that rejected a request.
type FailureReason string

const (
	ReasonNoToken          FailureReason = "no_token"
	ReasonSignatureInvalid FailureReason = "signature_invalid"
	ReasonTokenExpired     FailureReason = "token_expired"
	ReasonSessionNotFound  FailureReason = "session_not_found"
	ReasonSessionInactive  FailureReason = "session_inactive"
	ReasonSessionExpired   FailureReason = "session_expired"
	ReasonStoreError       FailureReason = "store_error"
)

// AuthFailure is returned for every rejected token. Reason is for logs and metrics only;
// callers must answer with a uniform unauthorized response.
type AuthFailure struct {
	Reason FailureReason
	Err    error
}

func (e *AuthFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthorized (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unauthorized (%s)", e.Reason)
}

func (e *AuthFailure) Unwrap() error {
	return apperrors.ErrUnauthorized
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	User    *model.User
	Session *model.Session
	Claims  *auth.Claims
	Token   string
}

// Role returns the principal's role.
func (p *Principal) Role() model.Role {
	return p.User.Role
}

// Gate authenticates bearer tokens against both the signature and the session store.
type Gate struct {
	issuer   *auth.TokenIssuer
	sessions SessionService
	logger   *zap.Logger
	now      func() time.Time
}

// NewGate creates a gate.
func NewGate(issuer *auth.TokenIssuer, sessions SessionService, logger *zap.Logger) *Gate {
	return &Gate{
		issuer:   issuer,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate resolves a token to a principal. The request is authorized only when the
// signature is valid, the session exists and is active, and the earlier of the two expiries
// is still in the future.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, g.reject(ReasonNoToken, nil)
	}

	claims, err := g.issuer.Verify(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, g.reject(ReasonTokenExpired, err)
	case err != nil:
		return nil, g.reject(ReasonSignatureInvalid, err)
	}

	session, err := g.sessions.FindByToken(ctx, token)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return nil, g.reject(ReasonSessionNotFound, err)
	case err != nil:
		return nil, g.reject(ReasonStoreError, err)
	}
	if session.User == nil || session.User.ID.String() != claims.UserID {
		return nil, g.reject(ReasonSessionNotFound, errors.New("session does not belong to token subject"))
	}

	now := g.now()
	effective := *session
	if claims.ExpiresAt.Time.Before(effective.ExpiresAt) {
		effective.ExpiresAt = claims.ExpiresAt.Time
	}

	switch effective.State(now) {
	case model.SessionActive:
		return &Principal{User: session.User, Session: session, Claims: claims, Token: token}, nil
	case model.SessionRevoked:
		return nil, g.reject(ReasonSessionInactive, nil)
	case model.SessionExpired:
		return nil, g.reject(ReasonSessionExpired, nil)
	default:
		return nil, g.reject(ReasonStoreError, fmt.Errorf("unknown session state %v", effective.State(now)))
	}
}

func (g *Gate) reject(reason FailureReason, err error) error {
	metrics.AuthFailuresTotal.WithLabelValues(string(reason)).Inc()
	fields := []zap.Field{zap.String("reason", string(reason))}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if reason == ReasonStoreError {
		g.logger.Error("authentication failed", fields...)
	} else {
		g.logger.Debug("authentication rejected", fields...)
	}
	return &AuthFailure{Reason: reason, Err: err}
}
