package repository

import (
	"context"

	"tasknest/internal/model"
	"tasknest/internal/storage"
)

// TaskRepository persists the task collection as one ordered snapshot.
type TaskRepository interface {
	List(ctx context.Context) ([]model.Task, error)
	SaveAll(ctx context.Context, tasks []model.Task) error
}

type taskRepository struct {
	store storage.Storage
}

// NewTaskRepository builds a snapshot repository on top of store.
func NewTaskRepository(store storage.Storage) TaskRepository {
	return &taskRepository{store: store}
}

func (r *taskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := load(ctx, r.store, storage.KeyTasks, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) SaveAll(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return save(ctx, r.store, storage.KeyTasks, tasks)
}
