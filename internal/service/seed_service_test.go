package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/storage"
)

func TestSeedService_SeedUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	seeder := NewSeedService(f.users, f.tasks)
	reserved := f.authn.Reserved()

	created, updated, err := seeder.SeedUsers(ctx, reserved)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)

	first, err := f.users.GetUser(ctx, "1")
	require.NoError(t, err)

	created, updated, err = seeder.SeedUsers(ctx, f.authn.Reserved())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 2, updated)

	again, err := f.users.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestSeedService_ImportTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	seeder := NewSeedService(f.users, f.tasks)
	admin := f.admin1(t)

	n, err := seeder.ImportTasks(ctx, admin, []model.TaskFields{
		{Title: "one"},
		{Title: "two", Priority: model.PriorityHigh},
		{Title: ""},
		{Title: "never"},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTask)
	assert.Equal(t, 2, n)

	all, err := f.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "two", all[1].Title)
}
