package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tasknest/internal/config"
	"tasknest/internal/logging"
	"tasknest/internal/model"
	"tasknest/internal/repository"
	"tasknest/internal/storage"
)

var (
	authnOnce   sync.Once
	sharedAuthn *LocalAuthenticator
)

func init() {
	logging.Discard()
}

// testAuthenticator hashes the default accounts once per test binary.
func testAuthenticator(t *testing.T) *LocalAuthenticator {
	t.Helper()
	authnOnce.Do(func() {
		a, err := NewLocalAuthenticator(config.DefaultAccounts)
		if err != nil {
			panic(err)
		}
		sharedAuthn = a
	})
	return sharedAuthn
}

type fixture struct {
	store    storage.Storage
	userRepo repository.UserRepository
	users    UserService
	tasks    TaskService
	session  SessionService
	admin    AdminService
	authn    *LocalAuthenticator
}

// newFixture wires every service over store, as a fresh process would.
func newFixture(t *testing.T, store storage.Storage) *fixture {
	t.Helper()
	authn := testAuthenticator(t)
	userRepo := repository.NewUserRepository(store)
	users := NewUserService(userRepo, nil)
	tasks := NewTaskService(repository.NewTaskRepository(store), users)
	return &fixture{
		store:    store,
		userRepo: userRepo,
		users:    users,
		tasks:    tasks,
		session:  NewSessionService(users, userRepo, authn),
		admin:    NewAdminService(users, tasks),
		authn:    authn,
	}
}

// login logs email in through the session and returns the identity.
func (f *fixture) login(t *testing.T, email, password string) *model.User {
	t.Helper()
	user, err := f.session.Login(context.Background(), email, password)
	require.NoError(t, err)
	return user
}

func (f *fixture) admin1(t *testing.T) *model.User {
	return f.login(t, "admin@tasknest.local", "admin123")
}

func (f *fixture) user2(t *testing.T) *model.User {
	return f.login(t, "user@tasknest.local", "user123")
}

// failingStorage fails every write after failWrites is set, and writes to failKey always.
type failingStorage struct {
	*storage.Memory
	failWrites bool
	failKey    string
}

var errDiskFull = errors.New("disk full")

func (s *failingStorage) Set(ctx context.Context, key string, value []byte) error {
	if s.failWrites || (s.failKey != "" && key == s.failKey) {
		return errDiskFull
	}
	return s.Memory.Set(ctx, key, value)
}

func ptr[T any](v T) *T { return &v }
