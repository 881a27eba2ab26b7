package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"tasknest/internal/cache"
	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService owns the persisted identity set. Emails are unique within it.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	mu    sync.Mutex
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache. cache may be nil.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfUser(users, id, "")
	if i < 0 {
		return nil, apperrors.ErrUserNotFound
	}
	user := users[i]

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return &user, nil
}

// FindByEmail returns nil, nil when no identity has the email.
func (s *userService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOfUser(users, "", email); i >= 0 {
		user := users[i]
		return &user, nil
	}
	return nil, nil
}

func (s *userService) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.GetUser(ctx, id)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateUser appends a new identity, failing with ErrRegistrationFailed if the email is taken.
func (s *userService) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if indexOfUser(users, "", user.Email) >= 0 {
		return nil, fmt.Errorf("%w: email %s is already registered", apperrors.ErrRegistrationFailed, user.Email)
	}
	if err := s.repo.SaveAll(ctx, append(users, *user)); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	created := *user
	return &created, nil
}

// UpsertUser replaces the identity with the same id or email in place, or appends it.
// Any other entry sharing the email is dropped so emails stay unique.
func (s *userService) UpsertUser(ctx context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	next := make([]model.User, 0, len(users)+1)
	placed := false
	for _, u := range users {
		if u.ID != user.ID && u.Email != user.Email {
			next = append(next, u)
			continue
		}
		_ = s.cache.Delete(ctx, s.cacheKey(u.ID))
		if !placed {
			next = append(next, *user)
			placed = true
		}
	}
	if !placed {
		next = append(next, *user)
	}

	if err := s.repo.SaveAll(ctx, next); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	saved := *user
	return &saved, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	i := indexOfUser(users, id, "")
	if i < 0 {
		return apperrors.ErrUserNotFound
	}
	next := append(users[:i:i], users[i+1:]...)
	if err := s.repo.SaveAll(ctx, next); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// indexOfUser matches on id when id is set, otherwise on email.
func indexOfUser(users []model.User, id, email string) int {
	for i, u := range users {
		if id != "" && u.ID == id {
			return i
		}
		if id == "" && email != "" && u.Email == email {
			return i
		}
	}
	return -1
}
