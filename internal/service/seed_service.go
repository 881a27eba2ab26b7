package service

import (
	"context"
	"fmt"

	"tasknest/internal/logging"
	"tasknest/internal/model"
)

// SeedService loads predefined identities and bulk task imports.
type SeedService interface {
	SeedUsers(ctx context.Context, users []model.User) (created, updated int, err error)
	ImportTasks(ctx context.Context, actor *model.User, items []model.TaskFields) (imported int, err error)
}

type seedService struct {
	users UserService
	tasks TaskService
}

// NewSeedService creates a new seed service.
func NewSeedService(users UserService, tasks TaskService) SeedService {
	return &seedService{users: users, tasks: tasks}
}

// SeedUsers upserts each identity. An identity already stored keeps its creation
// time and display name, so a rename survives the next seeding.
func (s *seedService) SeedUsers(ctx context.Context, users []model.User) (created, updated int, err error) {
	for _, u := range users {
		existing, err := s.users.FindByEmail(ctx, u.Email)
		if err != nil {
			return created, updated, fmt.Errorf("error checking user %s: %w", u.Email, err)
		}
		if existing != nil {
			u.CreatedAt = existing.CreatedAt
			u.Name = existing.Name
		}
		if _, err := s.users.UpsertUser(ctx, &u); err != nil {
			return created, updated, fmt.Errorf("error saving user %s: %w", u.Email, err)
		}
		if existing != nil {
			updated++
		} else {
			created++
		}
	}
	return created, updated, nil
}

// ImportTasks adds every item as actor and stops at the first rejected one.
func (s *seedService) ImportTasks(ctx context.Context, actor *model.User, items []model.TaskFields) (int, error) {
	imported := 0
	for i, item := range items {
		if _, err := s.tasks.AddTask(ctx, actor, item); err != nil {
			return imported, fmt.Errorf("task %d: %w", i, err)
		}
		imported++
	}
	logging.Logger.WithField("count", imported).Info("tasks imported")
	return imported, nil
}
