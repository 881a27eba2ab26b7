package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/logging"
	"tasknest/internal/model"
	"tasknest/internal/repository"
)

// UserLookup answers whether an identity id exists. UserService satisfies it.
type UserLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// TaskService holds the task collection. Every mutation starts from the persisted
// collection and persists the whole of it before the in-memory copy is replaced,
// then notifies subscribers. Reads serve the copy from the last load or write.
type TaskService interface {
	AddTask(ctx context.Context, actor *model.User, fields model.TaskFields) (*model.Task, error)
	UpdateTask(ctx context.Context, actor *model.User, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, actor *model.User, id string) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	UserTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	AssignedTasks(ctx context.Context, assigneeID string) ([]model.Task, error)
	TasksFor(ctx context.Context, userID string) ([]model.Task, error)
	AllTasks(ctx context.Context, actor *model.User) ([]model.Task, error)
	RemoveTasksFor(ctx context.Context, userID string) (int, error)
	Subscribe(fn func([]model.Task)) (unsubscribe func())
}

type taskService struct {
	mu        sync.Mutex
	repo      repository.TaskRepository
	users     UserLookup
	tasks     []model.Task
	loaded    bool
	listeners map[int]func([]model.Task)
	nextID    int
	now       func() time.Time
}

// NewTaskService builds a TaskService. The collection is loaded on first use.
func NewTaskService(repo repository.TaskRepository, users UserLookup) TaskService {
	return &taskService{
		repo:      repo,
		users:     users,
		listeners: make(map[int]func([]model.Task)),
		now:       time.Now,
	}
}

func (s *taskService) AddTask(ctx context.Context, actor *model.User, fields model.TaskFields) (*model.Task, error) {
	if actor == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	if err := fields.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidTask, err)
	}
	if err := s.checkAssignee(ctx, fields.AssignedTo); err != nil {
		return nil, err
	}

	task := model.Task{
		ID:          uuid.New().String(),
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
		Completed:   fields.Completed,
		CreatedAt:   s.now().UTC(),
		UserID:      actor.ID,
		CreatedBy:   actor.ID,
		AssignedTo:  fields.AssignedTo,
	}

	err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		return append(tasks, task), nil
	})
	if err != nil {
		return nil, err
	}
	logging.Logger.WithFields(logrus.Fields{"task_id": task.ID, "user_id": actor.ID}).Info("task added")
	return &task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, actor *model.User, id string, patch model.TaskPatch) (*model.Task, error) {
	if actor == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidTask, err)
	}
	if patch.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *patch.AssignedTo); err != nil {
			return nil, err
		}
	}

	var updated model.Task
	err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		i := indexOfTask(tasks, id)
		if i < 0 {
			return nil, apperrors.ErrTaskNotFound
		}
		if !CanUpdate(actor, &tasks[i], patch) {
			return nil, apperrors.ErrUnauthorized
		}
		updated = patch.Apply(tasks[i])
		tasks[i] = updated
		return tasks, nil
	})
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{"task_id": id, "user_id": actor.ID}).WithError(err).Debug("task update refused")
		return nil, err
	}
	logging.Logger.WithFields(logrus.Fields{"task_id": id, "user_id": actor.ID}).Info("task updated")
	return &updated, nil
}

// DeleteTask removes the task iff actor is admin or its owner.
func (s *taskService) DeleteTask(ctx context.Context, actor *model.User, id string) error {
	if actor == nil {
		return apperrors.ErrNotAuthenticated
	}
	err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		i := indexOfTask(tasks, id)
		if i < 0 {
			return nil, apperrors.ErrTaskNotFound
		}
		if !CanModify(actor, &tasks[i]) {
			return nil, apperrors.ErrUnauthorized
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{"task_id": id, "user_id": actor.ID}).WithError(err).Debug("task delete refused")
		return err
	}
	logging.Logger.WithFields(logrus.Fields{"task_id": id, "user_id": actor.ID}).Info("task deleted")
	return nil
}

func (s *taskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	tasks, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOfTask(tasks, id); i >= 0 {
		return &tasks[i], nil
	}
	return nil, apperrors.ErrTaskNotFound
}

func (s *taskService) UserTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	return s.selectTasks(ctx, func(t *model.Task) bool { return t.OwnedBy(ownerID) })
}

func (s *taskService) AssignedTasks(ctx context.Context, assigneeID string) ([]model.Task, error) {
	return s.selectTasks(ctx, func(t *model.Task) bool { return t.IsAssignedTo(assigneeID) })
}

// TasksFor returns the tasks owned by or assigned to userID.
func (s *taskService) TasksFor(ctx context.Context, userID string) ([]model.Task, error) {
	return s.selectTasks(ctx, func(t *model.Task) bool { return t.OwnedBy(userID) || t.IsAssignedTo(userID) })
}

// AllTasks is empty for an anonymous actor, the whole collection for an admin and
// the owned-or-assigned subset otherwise.
func (s *taskService) AllTasks(ctx context.Context, actor *model.User) ([]model.Task, error) {
	if actor == nil {
		return []model.Task{}, nil
	}
	if actor.IsAdmin() {
		return s.selectTasks(ctx, func(*model.Task) bool { return true })
	}
	return s.TasksFor(ctx, actor.ID)
}

// RemoveTasksFor drops every task owned by or assigned to userID and returns how many went.
func (s *taskService) RemoveTasksFor(ctx context.Context, userID string) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.OwnedBy(userID) || t.IsAssignedTo(userID) {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Subscribe registers fn to receive a copy of the collection after every mutation.
func (s *taskService) Subscribe(fn func([]model.Task)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// mutate reloads the collection, runs fn on a private copy, persists the result and
// only then swaps it in. Reloading keeps writes from other processes sharing the
// storage. fn may modify and return its argument.
func (s *taskService) mutate(ctx context.Context, fn func([]model.Task) ([]model.Task, error)) error {
	s.mu.Lock()
	if err := s.load(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	next, err := fn(cloneTasks(s.tasks))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.repo.SaveAll(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save tasks: %w", err)
	}
	s.tasks = next
	listeners := make([]func([]model.Task), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(cloneTasks(next))
	}
	return nil
}

func (s *taskService) snapshot(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return cloneTasks(s.tasks), nil
}

func (s *taskService) selectTasks(ctx context.Context, keep func(*model.Task) bool) ([]model.Task, error) {
	tasks, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(tasks))
	for i := range tasks {
		if keep(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out, nil
}

// ensureLoaded must be called with s.mu held.
func (s *taskService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.load(ctx)
}

// load must be called with s.mu held.
func (s *taskService) load(ctx context.Context) error {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	s.tasks = tasks
	s.loaded = true
	return nil
}

func (s *taskService) checkAssignee(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("look up assignee: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidAssignee, id)
	}
	return nil
}

// FilterTasks keeps the tasks that pass f, preserving order.
func FilterTasks(tasks []model.Task, f model.TaskFilter) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func indexOfTask(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}
