package service

import (
	"context"
	"errors"
	"fmt"

	"tasknest/internal/auth"
	apperrors "tasknest/internal/errors"
	"tasknest/internal/logging"
	"tasknest/internal/model"
)

var (
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrInvalidAccessToken is returned when an access token is invalid, expired or revoked.
	ErrInvalidAccessToken = errors.New("invalid or expired access token")
)

// AuthService issues and checks token pairs for the HTTP API. Each request's
// identity comes from its bearer token rather than from a process-wide session.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type authService struct {
	users      UserService
	authn      Authenticator
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(users UserService, authn Authenticator, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		users:      users,
		authn:      authn,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Register creates a new identity. It does not log the user in.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	user, err := s.authn.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(ctx, user)
}

// Login authenticates and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error) {
	user, err = resolveIdentity(ctx, s.users, s.authn, email, password)
	if err != nil {
		return "", "", nil, err
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	logging.Logger.WithField("user_id", user.ID).Info("token pair issued")
	return accessToken, refreshToken, user, nil
}

// RefreshToken validates a refresh token and returns a new access token carrying
// the identity's current data.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || !claims.IsRefresh() || claims.ID == "" {
		return "", ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", ErrInvalidRefreshToken
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates the refresh token and, when given, blacklists the access token
// for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, tokenID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if accessToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateToken(accessToken)
	if err != nil {
		// Already unusable.
		return nil
	}
	return s.tokenStore.BlacklistAccessToken(ctx, claims.ID, s.jwtService.RemainingTTL(claims))
}

// Authenticate resolves a bearer access token to its identity.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.jwtService.ValidateToken(accessToken)
	if err != nil || claims.IsRefresh() {
		return nil, ErrInvalidAccessToken
	}
	blacklisted, err := s.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrInvalidAccessToken
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, err
	}
	return user, nil
}
