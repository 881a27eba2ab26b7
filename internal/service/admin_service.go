package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/logging"
	"tasknest/internal/model"
)

// AdminService covers the administrator's view over identities and their tasks.
type AdminService interface {
	ListUsers(ctx context.Context, actor *model.User) ([]model.User, error)
	DeleteUser(ctx context.Context, actor *model.User, id string) (removedTasks int, err error)
	UserTasks(ctx context.Context, actor *model.User, id string) ([]model.Task, error)
	RenameUser(ctx context.Context, actor *model.User, id, name string) (*model.User, error)
}

type adminService struct {
	users UserService
	tasks TaskService
}

// NewAdminService creates a new admin service.
func NewAdminService(users UserService, tasks TaskService) AdminService {
	return &adminService{users: users, tasks: tasks}
}

func requireAdmin(actor *model.User) error {
	if actor == nil {
		return apperrors.ErrNotAuthenticated
	}
	if !actor.IsAdmin() {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func (s *adminService) ListUsers(ctx context.Context, actor *model.User) ([]model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

// DeleteUser removes a non-admin identity other than the actor, together with every
// task it owns or is assigned. Tasks go first so a failure never leaves orphans behind.
func (s *adminService) DeleteUser(ctx context.Context, actor *model.User, id string) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if id == actor.ID {
		return 0, apperrors.ErrCannotDeleteSelf
	}
	target, err := s.users.GetUser(ctx, id)
	if err != nil {
		return 0, err
	}
	if target.IsAdmin() {
		return 0, fmt.Errorf("%w: administrators cannot be deleted", apperrors.ErrUnauthorized)
	}

	removed, err := s.tasks.RemoveTasksFor(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("remove tasks of %s: %w", id, err)
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return removed, err
	}
	logging.Logger.WithFields(logrus.Fields{"user_id": id, "by": actor.ID, "tasks": removed}).Info("user deleted")
	return removed, nil
}

func (s *adminService) UserTasks(ctx context.Context, actor *model.User, id string) ([]model.Task, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return nil, err
	}
	return s.tasks.TasksFor(ctx, id)
}

// RenameUser changes the display name of any identity, the actor's own included.
func (s *adminService) RenameUser(ctx context.Context, actor *model.User, id, name string) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrInvalidName)
	}
	target, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	target.Name = name
	renamed, err := s.users.UpsertUser(ctx, target)
	if err != nil {
		return nil, err
	}
	logging.Logger.WithFields(logrus.Fields{"user_id": id, "by": actor.ID}).Info("user renamed")
	return renamed, nil
}
