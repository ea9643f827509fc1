package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campus/internal/auth"
	apperrors "campus/internal/errors"
	"campus/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockSessionService is a mock implementation of SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context, userID uuid.UUID, token, tokenID string, expiresAt time.Time) (*model.Session, error) {
	args := m.Called(ctx, userID, token, tokenID, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionService) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionService) Invalidate(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessionService) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionService) Sweep(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "successful registration",
			input: RegisterInput{
				Email:     "Ada@Campus.test",
				Password:  "password123",
				FirstName: "Ada",
				LastName:  "Lovelace",
				Role:      model.RoleStudent,
				StudentID: "S-001",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ada@campus.test").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name: "user already exists",
			input: RegisterInput{
				Email:    "existing@campus.test",
				Password: "password123",
				Role:     model.RoleFaculty,
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@campus.test").Return(&model.User{Email: "existing@campus.test"}, nil)
			},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name: "duplicate student number",
			input: RegisterInput{
				Email:     "new@campus.test",
				Password:  "password123",
				Role:      model.RoleStudent,
				StudentID: "S-001",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "new@campus.test").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name: "unknown role",
			input: RegisterInput{
				Email:    "x@campus.test",
				Password: "password123",
				Role:     model.Role("JANITOR"),
			},
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			issuer := auth.NewTokenIssuer("test-secret", time.Hour)
			service := NewAuthService(mockRepo, issuer, new(MockSessionService), zap.NewNop())
			user, err := service.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ada@campus.test", user.Email)
				assert.Equal(t, model.RoleStudent, user.Role)
				require.NotNil(t, user.StudentID)
				assert.Equal(t, "S-001", *user.StudentID)
				assert.Nil(t, user.EmployeeID)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		ID:           uuid.New(),
		Role:         model.RoleStudent,
		Email:        "test@campus.test",
		PasswordHash: string(hashedPassword),
	}

	tests := []struct {
		name          string
		identifier    string
		password      string
		setupMock     func(*MockUserRepository, *MockSessionService)
		expectedError error
	}{
		{
			name:       "successful login",
			identifier: "TEST@campus.test",
			password:   "password123",
			setupMock: func(mRepo *MockUserRepository, mSessions *MockSessionService) {
				mRepo.On("FindByIdentifier", mock.Anything, "test@campus.test").Return(user, nil)
				mSessions.On("Create", mock.Anything, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
					Return(&model.Session{UserID: user.ID, Active: true}, nil)
			},
		},
		{
			name:       "login by student number",
			identifier: "S-42",
			password:   "password123",
			setupMock: func(mRepo *MockUserRepository, mSessions *MockSessionService) {
				mRepo.On("FindByIdentifier", mock.Anything, "S-42").Return(user, nil)
				mSessions.On("Create", mock.Anything, user.ID, mock.Anything, mock.Anything, mock.Anything).
					Return(&model.Session{UserID: user.ID, Active: true}, nil)
			},
		},
		{
			name:       "invalid credentials - user not found",
			identifier: "notfound@campus.test",
			password:   "password123",
			setupMock: func(mRepo *MockUserRepository, mSessions *MockSessionService) {
				mRepo.On("FindByIdentifier", mock.Anything, "notfound@campus.test").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:       "invalid credentials - wrong password",
			identifier: "test@campus.test",
			password:   "wrong",
			setupMock: func(mRepo *MockUserRepository, mSessions *MockSessionService) {
				mRepo.On("FindByIdentifier", mock.Anything, "test@campus.test").Return(user, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockSessions := new(MockSessionService)
			tt.setupMock(mockRepo, mockSessions)

			issuer := auth.NewTokenIssuer("test-secret", time.Hour)
			service := NewAuthService(mockRepo, issuer, mockSessions, zap.NewNop())

			token, got, err := service.Login(context.Background(), tt.identifier, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, user.ID, got.ID)

				claims, err := issuer.Verify(token)
				require.NoError(t, err)
				assert.Equal(t, user.ID.String(), claims.UserID)
				assert.Equal(t, model.RoleStudent, claims.Role)
			}

			mockRepo.AssertExpectations(t)
			mockSessions.AssertExpectations(t)
		})
	}
}

// The session created at login expires with the token it backs.
func TestAuthService_LoginSessionExpiryMatchesToken(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{ID: uuid.New(), Role: model.RoleFaculty, Email: "f@campus.test", PasswordHash: string(hashedPassword)}

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByIdentifier", mock.Anything, "f@campus.test").Return(user, nil)

	var expiresAt time.Time
	mockSessions := new(MockSessionService)
	mockSessions.On("Create", mock.Anything, user.ID, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { expiresAt = args.Get(4).(time.Time) }).
		Return(&model.Session{}, nil)

	issuer := auth.NewTokenIssuer("test-secret", 2*time.Hour)
	token, _, err := NewAuthService(mockRepo, issuer, mockSessions, zap.NewNop()).
		Login(context.Background(), "f@campus.test", "pw")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Time.Equal(expiresAt))
}

func TestAuthService_Logout(t *testing.T) {
	mockSessions := new(MockSessionService)
	mockSessions.On("Invalidate", mock.Anything, "tok").Return(nil)
	userID := uuid.New()
	mockSessions.On("InvalidateAllForUser", mock.Anything, userID).Return(int64(3), nil)

	service := NewAuthService(new(MockUserRepository), auth.NewTokenIssuer("s", 0), mockSessions, zap.NewNop())

	assert.NoError(t, service.Logout(context.Background(), "tok"))
	n, err := service.LogoutAll(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mockSessions.AssertExpectations(t)
}
