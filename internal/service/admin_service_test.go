package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/repository"
	"tasknest/internal/storage"
)

func TestAdminService_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	u := f.user2(t)

	_, err := f.admin.ListUsers(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	_, err = f.admin.ListUsers(ctx, u)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = f.admin.DeleteUser(ctx, u, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = f.admin.UserTasks(ctx, u, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAdminService_ListUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	u := f.user2(t)
	admin := f.admin1(t)

	users, err := f.admin.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, u.ID, users[0].ID)
	assert.Equal(t, admin.ID, users[1].ID)
}

func TestAdminService_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	grace := f.login(t, "grace@example.com", "pw")
	_, err := f.tasks.AddTask(ctx, grace, model.TaskFields{Title: "grace's"})
	require.NoError(t, err)
	admin := f.admin1(t)
	_, err = f.tasks.AddTask(ctx, admin, model.TaskFields{Title: "for grace", AssignedTo: grace.ID})
	require.NoError(t, err)
	kept, err := f.tasks.AddTask(ctx, admin, model.TaskFields{Title: "admin's"})
	require.NoError(t, err)

	tasks, err := f.admin.UserTasks(ctx, admin, grace.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	removed, err := f.admin.DeleteUser(ctx, admin, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ok, err := f.users.Exists(ctx, grace.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := f.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, taskIDs(all))

	_, err = f.admin.UserTasks(ctx, admin, grace.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestAdminService_DeleteUserRefusals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	admin := f.admin1(t)

	_, err := f.admin.DeleteUser(ctx, admin, admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrCannotDeleteSelf)

	_, err = f.admin.DeleteUser(ctx, admin, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	other := &model.User{ID: "ops", Email: "ops@example.com", Role: model.RoleAdmin}
	_, err = f.users.UpsertUser(ctx, other)
	require.NoError(t, err)
	_, err = f.admin.DeleteUser(ctx, admin, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAdminService_DeleteUserKeepsUserWhenTasksCannotBeSaved(t *testing.T) {
	ctx := context.Background()
	store := &failingStorage{Memory: storage.NewMemory()}
	f := newFixture(t, store)
	grace := f.login(t, "grace@example.com", "pw")
	task, err := f.tasks.AddTask(ctx, grace, model.TaskFields{Title: "grace's"})
	require.NoError(t, err)
	admin := f.admin1(t)

	store.failKey = storage.KeyTasks
	_, err = f.admin.DeleteUser(ctx, admin, grace.ID)
	assert.ErrorIs(t, err, errDiskFull)

	ok, err := f.users.Exists(ctx, grace.ID)
	require.NoError(t, err)
	assert.True(t, ok, "user stays with their tasks")

	persisted, err := repository.NewTaskRepository(store).List(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, task.ID, persisted[0].ID)
	assert.Equal(t, grace.ID, persisted[0].UserID)
}

func TestAdminService_RenameUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	u := f.user2(t)
	admin := f.admin1(t)

	tests := []struct {
		name    string
		actor   *model.User
		id      string
		newName string
		wantErr error
	}{
		{name: "anonymous", actor: nil, id: u.ID, newName: "X", wantErr: apperrors.ErrNotAuthenticated},
		{name: "non-admin", actor: u, id: u.ID, newName: "X", wantErr: apperrors.ErrUnauthorized},
		{name: "blank name", actor: admin, id: u.ID, newName: "   ", wantErr: apperrors.ErrInvalidName},
		{name: "unknown user", actor: admin, id: "ghost", newName: "X", wantErr: apperrors.ErrUserNotFound},
		{name: "renamed", actor: admin, id: u.ID, newName: "  Regular Joe "},
		{name: "self", actor: admin, id: admin.ID, newName: "Root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.admin.RenameUser(ctx, tt.actor, tt.id, tt.newName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.newName), got.Name)

			stored, err := f.users.GetUser(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, got, stored)
		})
	}

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAdminService_RenameSurvivesReseeding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	seeder := NewSeedService(f.users, f.tasks)
	_, _, err := seeder.SeedUsers(ctx, f.authn.Reserved())
	require.NoError(t, err)
	admin := f.admin1(t)

	_, err = f.admin.RenameUser(ctx, admin, "2", "Regular Joe")
	require.NoError(t, err)
	_, _, err = seeder.SeedUsers(ctx, f.authn.Reserved())
	require.NoError(t, err)

	got, err := f.users.GetUser(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Regular Joe", got.Name)
}
