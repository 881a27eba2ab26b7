// Package storage is the durable key/value "local storage" behind the stores.
// Every value is a whole JSON snapshot; writes replace it wholesale.
package storage

import "context"

// Keys of the persisted blobs.
const (
	KeyCurrentUser = "currentUser"
	KeyUsers       = "users"
	KeyTasks       = "tasks"
	KeyAuthTokens  = "authTokens"
)

// Storage is a blob store keyed by string.
// Get returns nil, nil for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
