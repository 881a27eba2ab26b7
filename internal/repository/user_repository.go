package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tasknest/internal/model"
	"tasknest/internal/storage"
)

// UserRepository persists the identity set and the current-identity record.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	SaveAll(ctx context.Context, users []model.User) error
	Current(ctx context.Context) (*model.User, error)
	SetCurrent(ctx context.Context, user *model.User) error
	ClearCurrent(ctx context.Context) error
}

type userRepository struct {
	store storage.Storage
}

// NewUserRepository builds a snapshot repository on top of store.
func NewUserRepository(store storage.Storage) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := load(ctx, r.store, storage.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) SaveAll(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	return save(ctx, r.store, storage.KeyUsers, users)
}

// Current returns nil, nil when nobody is logged in.
func (r *userRepository) Current(ctx context.Context) (*model.User, error) {
	var user *model.User
	if err := load(ctx, r.store, storage.KeyCurrentUser, &user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetCurrent(ctx context.Context, user *model.User) error {
	return save(ctx, r.store, storage.KeyCurrentUser, user)
}

func (r *userRepository) ClearCurrent(ctx context.Context) error {
	return r.store.Delete(ctx, storage.KeyCurrentUser)
}

// load decodes the blob at key into out, leaving out untouched when the key is missing.
func load(ctx context.Context, store storage.Storage, key string, out any) error {
	data, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func save(ctx context.Context, store storage.Storage, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, payload)
}
