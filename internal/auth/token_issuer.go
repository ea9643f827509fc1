package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"campus/internal/model"
)

// DefaultTokenLifetime is used when no lifetime is configured.
const DefaultTokenLifetime = 24 * time.Hour

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and unexpected algorithms.
	ErrTokenInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the signed expiry has elapsed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents JWT claims.
type Claims struct {
	UserID string     `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserUUID parses the subject user id.
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// TokenIssuer signs and verifies HS256 bearer tokens. It holds no state besides the secret.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates an issuer with the given secret and token lifetime.
func NewTokenIssuer(secret string, lifetime time.Duration) *TokenIssuer {
	if lifetime == 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenIssuer{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime returns the configured token lifetime.
func (s *TokenIssuer) Lifetime() time.Duration {
	return s.lifetime
}

// Issue signs a token for the user. The returned claims carry the exact expiry so the
// session row can be persisted with the same instant.
func (s *TokenIssuer) Issue(userID uuid.UUID, role model.Role) (string, *Claims, error) {
	now := s.now().UTC().Truncate(time.Second)
	claims := &Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Verify checks the signature and the signed expiry. It returns ErrTokenExpired or
// ErrTokenInvalid so callers can log the reason.
func (s *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		// v4 reports claim and signature failures together; a bad signature wins.
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenInvalid
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// HashToken returns the hex sha256 of a token, the only form stored server-side.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
