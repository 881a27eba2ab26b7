package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tasknest/internal/logging"
	"tasknest/internal/model"
	"tasknest/internal/repository"
)

// SessionService tracks at most one authenticated identity for the process and
// persists it so the next process resumes the session.
type SessionService interface {
	Resume(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	Current() *model.User
	IsAdmin() bool
}

type sessionService struct {
	mu      sync.RWMutex
	users   UserService
	repo    repository.UserRepository
	authn   Authenticator
	current *model.User
}

// NewSessionService starts Anonymous; call Resume to pick up a persisted session.
func NewSessionService(users UserService, repo repository.UserRepository, authn Authenticator) SessionService {
	return &sessionService{users: users, repo: repo, authn: authn}
}

// Resume loads the persisted current identity, if any, refreshed from the identity set.
func (s *sessionService) Resume(ctx context.Context) (*model.User, error) {
	user, err := s.repo.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	if user != nil {
		// Pick up changes made since login, such as a rename.
		if stored, err := s.users.GetUser(ctx, user.ID); err == nil {
			user = stored
		}
	}

	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
	return s.Current(), nil
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := resolveIdentity(ctx, s.users, s.authn, email, password)
	if err != nil {
		logging.Logger.WithField("email", email).WithError(err).Info("login rejected")
		return nil, err
	}
	if err := s.setCurrent(ctx, user); err != nil {
		return nil, err
	}
	logging.Logger.WithField("user_id", user.ID).Info("logged in")
	return s.Current(), nil
}

func (s *sessionService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	user, err := s.authn.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	if user, err = s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.setCurrent(ctx, user); err != nil {
		return nil, err
	}
	logging.Logger.WithField("user_id", user.ID).Info("registered")
	return s.Current(), nil
}

// Logout always ends the session. The persisted identity is cleared before any
// remote credentials are dropped, and failures of both steps are reported together.
func (s *sessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	var errs []error
	if err := s.repo.ClearCurrent(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear current user: %w", err))
	}
	if d, ok := s.authn.(Deauthenticator); ok {
		if err := d.Forget(ctx); err != nil {
			errs = append(errs, fmt.Errorf("forget credentials: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		logging.Logger.WithError(err).Warn("logout incomplete")
		return err
	}
	logging.Logger.Info("logged out")
	return nil
}

// Current returns a copy of the current identity, or nil when Anonymous.
func (s *sessionService) Current() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	user := *s.current
	return &user
}

func (s *sessionService) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsAdmin()
}

func (s *sessionService) setCurrent(ctx context.Context, user *model.User) error {
	if err := s.repo.SetCurrent(ctx, user); err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
	return nil
}
