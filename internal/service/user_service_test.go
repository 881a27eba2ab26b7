package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasknest/internal/cache"
	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/repository"
	"tasknest/internal/storage"
)

func TestUserService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewUserRepository(storage.NewMemory()), nil)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	created, err := svc.CreateUser(ctx, &model.User{ID: "a", Email: "a@example.com", Role: model.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "a", created.ID)

	_, err = svc.CreateUser(ctx, &model.User{ID: "b", Email: "a@example.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrRegistrationFailed)

	got, err := svc.GetUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	ok, err := svc.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := svc.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", found.ID)
	found, err = svc.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserService_UpsertKeepsEmailsUnique(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewUserRepository(storage.NewMemory()), nil)

	_, err := svc.UpsertUser(ctx, &model.User{ID: "a", Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	_, err = svc.UpsertUser(ctx, &model.User{ID: "b", Email: "b@example.com", Name: "B"})
	require.NoError(t, err)

	_, err = svc.UpsertUser(ctx, &model.User{ID: "a", Email: "a@example.com", Name: "Renamed"})
	require.NoError(t, err)
	_, err = svc.UpsertUser(ctx, &model.User{ID: "c", Email: "b@example.com", Name: "C"})
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Renamed", users[0].Name)
	assert.Equal(t, "c", users[1].ID, "same email replaces in place")
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewUserRepository(storage.NewMemory()), nil)
	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.CreateUser(ctx, &model.User{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteUser(ctx, "b"))
	assert.ErrorIs(t, svc.DeleteUser(ctx, "b"), apperrors.ErrUserNotFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].ID)
	assert.Equal(t, "c", users[1].ID)
}

func TestUserService_CacheIsInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	svc := NewUserService(repository.NewUserRepository(storage.NewMemory()), c)

	_, err := svc.CreateUser(ctx, &model.User{ID: "a", Email: "a@example.com", Name: "Before"})
	require.NoError(t, err)
	got, err := svc.GetUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Before", got.Name)
	assert.True(t, mr.Exists("user:a"))

	_, err = svc.UpsertUser(ctx, &model.User{ID: "a", Email: "a@example.com", Name: "After"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("user:a"))

	got, err = svc.GetUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)

	require.NoError(t, svc.DeleteUser(ctx, "a"))
	_, err = svc.GetUser(ctx, "a")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
