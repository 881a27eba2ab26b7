package cli

import (
	"context"
	"fmt"

	"tasknest/internal/client"
	"tasknest/internal/config"
	"tasknest/internal/logging"
	"tasknest/internal/model"
	"tasknest/internal/repository"
	"tasknest/internal/service"
	"tasknest/internal/storage"
)

// App is one process's wiring of the stores over a single storage.
type App struct {
	Session service.SessionService
	Users   service.UserService
	Tasks   service.TaskService
	Admin   service.AdminService
	Remote  *client.RemoteAuthenticator

	close func() error
}

// OpenApp opens storage, wires the services and resumes the persisted session.
// With remoteURL set, credentials are checked by that server instead of locally.
func OpenApp(ctx context.Context, cfg *config.Config, open StorageOpener, remoteURL string) (*App, error) {
	store, closeStore, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	app, err := newApp(ctx, cfg, store, remoteURL)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	app.close = closeStore
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, store storage.Storage, remoteURL string) (*App, error) {
	userRepo := repository.NewUserRepository(store)
	users := service.NewUserService(userRepo, nil)
	tasks := service.NewTaskService(repository.NewTaskRepository(store), users)
	app := &App{
		Users: users,
		Tasks: tasks,
		Admin: service.NewAdminService(users, tasks),
	}

	var authn service.Authenticator
	if remoteURL != "" {
		app.Remote = client.NewRemoteAuthenticator(client.New(remoteURL, nil), store)
		authn = app.Remote
	} else {
		accounts, err := cfg.ReservedAccounts()
		if err != nil {
			return nil, err
		}
		local, err := service.NewLocalAuthenticator(accounts)
		if err != nil {
			return nil, err
		}
		// Predefined accounts must exist before anyone logs in, so they can be assigned.
		if _, _, err := service.NewSeedService(users, tasks).SeedUsers(ctx, local.Reserved()); err != nil {
			return nil, fmt.Errorf("seed reserved accounts: %w", err)
		}
		authn = local
	}
	app.Session = service.NewSessionService(users, userRepo, authn)

	current, err := app.Session.Resume(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil && app.Remote != nil {
		if err := app.checkRemoteSession(ctx); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// checkRemoteSession ends the local session when the server no longer accepts its tokens.
func (a *App) checkRemoteSession(ctx context.Context) error {
	user, err := a.Remote.Verify(ctx)
	if err != nil {
		logging.Logger.WithError(err).Warn("could not verify remote session, keeping it")
		return nil
	}
	if user != nil {
		return nil
	}
	logging.Logger.Info("remote session expired")
	return a.Session.Logout(ctx)
}

// logTaskChanges reports every committed change to the task collection at debug level.
func (a *App) logTaskChanges() func() {
	return a.Tasks.Subscribe(func(tasks []model.Task) {
		logging.Logger.WithField("tasks", len(tasks)).Debug("task collection changed")
	})
}

// Close releases the storage.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
