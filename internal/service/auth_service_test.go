package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tasknest/internal/auth"
	"tasknest/internal/cache"
	apperrors "tasknest/internal/errors"
	"tasknest/internal/repository"
	"tasknest/internal/storage"
)

const testSecret = "test-secret"

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID string, email string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, email, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newAuthService(t *testing.T, tokenStore auth.TokenStoreInterface) (AuthService, UserService) {
	t.Helper()
	users := NewUserService(repository.NewUserRepository(storage.NewMemory()), nil)
	return NewAuthService(users, testAuthenticator(t), auth.NewJWTService(testSecret), tokenStore), users
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		expectedError error
	}{
		{name: "new email", email: "grace@example.com", password: "pw"},
		{name: "empty password", email: "ada@example.com", password: "", expectedError: apperrors.ErrRegistrationFailed},
		{name: "reserved email", email: "admin@tasknest.local", password: "pw", expectedError: apperrors.ErrRegistrationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users := newAuthService(t, new(MockTokenStore))
			user, err := svc.Register(context.Background(), "Someone", tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, user.Email)
			stored, err := users.GetUser(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, user.Email, stored.Email)
		})
	}
}

func TestAuthService_RegisterTwice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t, new(MockTokenStore))

	_, err := svc.Register(ctx, "Grace", "grace@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Grace", "grace@example.com", "other")
	assert.ErrorIs(t, err, apperrors.ErrRegistrationFailed)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "admin@tasknest.local",
			password: "admin123",
			setupMock: func(m *MockTokenStore) {
				m.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), "1", "admin@tasknest.local", auth.RefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:          "wrong password",
			email:         "admin@tasknest.local",
			password:      "wrong",
			setupMock:     func(m *MockTokenStore) {},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "token store failure",
			email:    "user@tasknest.local",
			password: "user123",
			setupMock: func(m *MockTokenStore) {
				m.On("StoreRefreshToken", mock.Anything, mock.Anything, "2", mock.Anything, mock.Anything).Return(errors.New("redis down"))
			},
			expectedError: errors.New("store refresh token: redis down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenStore := new(MockTokenStore)
			tt.setupMock(tokenStore)
			svc, _ := newAuthService(t, tokenStore)

			access, refresh, user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, apperrors.ErrInvalidCredentials) {
					assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
				} else {
					assert.EqualError(t, err, tt.expectedError.Error())
				}
				assert.Empty(t, access)
				assert.Empty(t, refresh)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, access)
				assert.NotEmpty(t, refresh)
				assert.Equal(t, tt.email, user.Email)
			}
			tokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	tokenStore := new(MockTokenStore)
	tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, _ := newAuthService(t, tokenStore)

	access, refresh, user, err := svc.Login(ctx, "user@tasknest.local", "user123")
	require.NoError(t, err)
	refreshID, err := auth.NewJWTService(testSecret).ExtractTokenID(refresh)
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		tokenStore.On("GetRefreshToken", mock.Anything, refreshID).Return(user.ID, user.Email, nil).Once()
		next, err := svc.RefreshToken(ctx, refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, next)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		tokenStore.On("GetRefreshToken", mock.Anything, refreshID).Return("", "", errors.New("refresh token not found")).Once()
		_, err := svc.RefreshToken(ctx, refresh)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, access)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	tokenStore := new(MockTokenStore)
	tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, _ := newAuthService(t, tokenStore)

	access, refresh, user, err := svc.Login(ctx, "admin@tasknest.local", "admin123")
	require.NoError(t, err)
	accessID, err := auth.NewJWTService(testSecret).ExtractTokenID(access)
	require.NoError(t, err)

	tokenStore.On("IsAccessTokenBlacklisted", mock.Anything, accessID).Return(false, nil).Once()
	got, err := svc.Authenticate(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, got.IsAdmin())

	tokenStore.On("IsAccessTokenBlacklisted", mock.Anything, accessID).Return(true, nil).Once()
	_, err = svc.Authenticate(ctx, access)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	_, err = svc.Authenticate(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	_, err = NewAuthService(nil, nil, auth.NewJWTService("other-secret"), tokenStore).Authenticate(ctx, access)
	assert.ErrorIs(t, err, ErrInvalidAccessToken, "tokens signed with another secret are rejected")
	tokenStore.AssertExpectations(t)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	svc, _ := newAuthService(t, auth.NewTokenStore(c))

	access, refresh, _, err := svc.Login(ctx, "user@tasknest.local", "user123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, access)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, refresh, access))

	_, err = svc.Authenticate(ctx, access)
	assert.ErrorIs(t, err, ErrInvalidAccessToken, "access token is blacklisted after logout")
	_, err = svc.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "refresh token is revoked after logout")

	assert.ErrorIs(t, svc.Logout(ctx, "garbage", ""), ErrInvalidRefreshToken)
}
