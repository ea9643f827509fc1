package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campus/internal/auth"
	apperrors "campus/internal/errors"
	"campus/internal/metrics"
	"campus/internal/model"
	"campus/internal/repository"
)

const bcryptCost = 10

var (
	// ErrInvalidCredentials is returned when identifier or password is incorrect.
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	// ErrUserAlreadyExists is returned when trying to register an existing user.
	ErrUserAlreadyExists = fmt.Errorf("user %w", apperrors.ErrAlreadyExists)
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       model.Role
	StudentID  string
	EmployeeID string
	Section    string
	Year       int
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, identifier, password string) (token string, user *model.User, err error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type authService struct {
	userRepo repository.UserRepository
	issuer   *auth.TokenIssuer
	sessions SessionService
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, issuer *auth.TokenIssuer, sessions SessionService, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		issuer:   issuer,
		sessions: sessions,
		logger:   logger,
	}
}

// HashPassword hashes a password with the service's bcrypt cost.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a new user with hashed password.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if !in.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	email := normalizeIdentifier(in.Email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Role:         in.Role,
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		StudentID:    optional(in.StudentID),
		EmployeeID:   optional(in.EmployeeID),
		Section:      optional(in.Section),
	}
	if in.Year > 0 {
		year := in.Year
		user.Year = &year
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login authenticates by email, student number or employee number and opens a session
// that expires with the token.
func (s *authService) Login(ctx context.Context, identifier, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByIdentifier(ctx, normalizeIdentifier(identifier))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
		}
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return "", nil, ErrInvalidCredentials
	}

	token, claims, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	if _, err := s.sessions.Create(ctx, user.ID, token, claims.ID, claims.ExpiresAt.Time); err != nil {
		return "", nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return token, user, nil
}

// Logout invalidates the session of one token.
func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}

// LogoutAll invalidates every active session of the user.
func (s *authService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.sessions.InvalidateAllForUser(ctx, userID)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// normalizeIdentifier lowercases emails; student and employee numbers keep their case.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return identifier
}
