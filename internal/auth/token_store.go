package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campus/internal/cache"
	"campus/internal/model"
)

const (
	sessionKeyPrefix = "session:"
	revokedKeyPrefix = "session:revoked:"
)

// revokedTTLFactor scales the snapshot TTL for revocation markers. A marker must outlive
// any lookup that read the row before the revocation and has not written its snapshot yet.
const revokedTTLFactor = 2

// SessionCacheInterface defines the lookup cache in front of the session table.
type SessionCacheInterface interface {
	Put(ctx context.Context, tokenHash string, session *model.Session) error
	Get(ctx context.Context, tokenHash string) (*model.Session, error)
	Revoke(ctx context.Context, tokenHashes ...string) error
}

// cachedSession is the redis payload. The user is denormalized so a cache hit needs no query.
type cachedSession struct {
	ID        uuid.UUID   `json:"id"`
	TokenID   string      `json:"token_id"`
	UserID    uuid.UUID   `json:"user_id"`
	ExpiresAt time.Time   `json:"expires_at"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	User      *model.User `json:"user"`
}

// SessionCache stores session snapshots in Redis keyed by token hash.
type SessionCache struct {
	cache *cache.Client
	ttl   time.Duration
}

// Ensure SessionCache implements SessionCacheInterface
var _ SessionCacheInterface = (*SessionCache)(nil)

// NewSessionCache creates a session cache whose entries live at most ttl.
func NewSessionCache(cache *cache.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{cache: cache, ttl: ttl}
}

// Put stores a snapshot. The TTL never outlives the session itself, and a revoked
// token hash is never written back.
func (s *SessionCache) Put(ctx context.Context, tokenHash string, session *model.Session) error {
	ttl := s.ttl
	if remaining := time.Until(session.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 || !session.Active {
		return nil
	}

	payload, err := json.Marshal(cachedSession{
		ID:        session.ID,
		TokenID:   session.TokenID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		Active:    session.Active,
		CreatedAt: session.CreatedAt,
		User:      session.User,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.cache.SetUnless(ctx, sessionKeyPrefix+tokenHash, revokedKeyPrefix+tokenHash, payload, ttl)
	return err
}

// Get returns the cached session or nil on a miss.
func (s *SessionCache) Get(ctx context.Context, tokenHash string) (*model.Session, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+tokenHash)
	if err != nil || data == nil {
		return nil, nil
	}
	if revoked, err := s.cache.Exists(ctx, revokedKeyPrefix+tokenHash); err != nil || revoked {
		return nil, nil
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if cached.User == nil {
		return nil, nil
	}
	return &model.Session{
		ID:        cached.ID,
		TokenHash: tokenHash,
		TokenID:   cached.TokenID,
		UserID:    cached.UserID,
		ExpiresAt: cached.ExpiresAt,
		Active:    cached.Active,
		CreatedAt: cached.CreatedAt,
		User:      cached.User,
	}, nil
}

// Revoke marks the token hashes revoked and drops their snapshots. Markers are written
// first so a concurrent Put cannot restore a snapshot after the delete.
func (s *SessionCache) Revoke(ctx context.Context, tokenHashes ...string) error {
	if len(tokenHashes) == 0 || s.ttl <= 0 {
		return nil
	}
	keys := make([]string, 0, len(tokenHashes))
	for _, h := range tokenHashes {
		if err := s.cache.Set(ctx, revokedKeyPrefix+h, []byte("1"), revokedTTLFactor*s.ttl); err != nil {
			return err
		}
		keys = append(keys, sessionKeyPrefix+h)
	}
	return s.cache.Delete(ctx, keys...)
}
