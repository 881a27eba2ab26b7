package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasknest/internal/model"
	"tasknest/internal/storage"
)

func TestTaskRepository_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tasks := []model.Task{
		{ID: "c", Title: "third by id, first by insertion", Priority: model.PriorityHigh, CreatedAt: created, UserID: "1", CreatedBy: "1"},
		{ID: "a", Title: "second", Priority: model.PriorityLow, DueDate: "2024-06-01", UserID: "2", CreatedBy: "2", AssignedTo: "1"},
		{ID: "b", Title: "third", Priority: model.PriorityMedium, Completed: true, UserID: "1", CreatedBy: "1"},
	}
	require.NoError(t, NewTaskRepository(store).SaveAll(ctx, tasks))

	reloaded, err := NewTaskRepository(store).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks, reloaded)
}

func TestTaskRepository_EmptyStore(t *testing.T) {
	tasks, err := NewTaskRepository(storage.NewMemory()).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepository_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, NewTaskRepository(store).SaveAll(ctx, nil))

	raw, err := store.Get(ctx, storage.KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestTaskRepository_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, storage.KeyTasks, []byte("{not json")))

	_, err := NewTaskRepository(store).List(ctx)
	assert.Error(t, err)
}

func TestUserRepository_Current(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemory())

	current, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	user := &model.User{ID: "1", Email: "a@example.com", Name: "A", Role: model.RoleAdmin}
	require.NoError(t, repo.SetCurrent(ctx, user))

	current, err = repo.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, *user, *current)

	require.NoError(t, repo.ClearCurrent(ctx))
	current, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestUserRepository_ClearCurrentKeepsIdentitySet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemory())
	users := []model.User{{ID: "1", Email: "a@example.com"}, {ID: "2", Email: "b@example.com"}}

	require.NoError(t, repo.SaveAll(ctx, users))
	require.NoError(t, repo.SetCurrent(ctx, &users[0]))
	require.NoError(t, repo.ClearCurrent(ctx))

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, listed)
}
