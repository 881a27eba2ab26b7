package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"tasknest/internal/config"
	"tasknest/internal/logging"
	"tasknest/internal/model"
	"tasknest/internal/repository"
	"tasknest/internal/service"
	"tasknest/internal/storage"
)

func main() {
	tasksSource := flag.String("tasks", "", "JSON file or http(s) URL with an array of tasks to import as the first admin")
	flag.Parse()

	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)
	log := logging.Logger
	log.Info("Starting seed script...")

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()
	log.WithField("driver", cfg.StorageDriver).Info("Connected to storage")

	accounts, err := cfg.ReservedAccounts()
	if err != nil {
		log.Fatalf("Failed to load reserved accounts: %v", err)
	}
	authn, err := service.NewLocalAuthenticator(accounts)
	if err != nil {
		log.Fatalf("Failed to prepare accounts: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(store), nil)
	tasks := service.NewTaskService(repository.NewTaskRepository(store), users)
	seeder := service.NewSeedService(users, tasks)

	created, updated, err := seeder.SeedUsers(ctx, authn.Reserved())
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	log.Infof("Users seeded: %d created, %d updated", created, updated)

	if *tasksSource == "" {
		log.Info("Seed completed successfully!")
		return
	}

	items, err := fetchTasks(*tasksSource)
	if err != nil {
		log.Fatalf("Failed to fetch tasks: %v", err)
	}
	log.Infof("Fetched %d tasks from %s", len(items), *tasksSource)

	admin := firstAdmin(authn.Reserved())
	if admin == nil {
		log.Fatal("No admin account configured to own imported tasks")
	}
	imported, err := seeder.ImportTasks(ctx, admin, items)
	if err != nil {
		log.Fatalf("Imported %d tasks, then failed: %v", imported, err)
	}
	log.Infof("Seed completed successfully! %d tasks imported", imported)
}

// fetchTasks reads a JSON array of tasks from a local file or an http(s) URL.
func fetchTasks(source string) ([]model.TaskFields, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch from API: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API returned status code: %d", resp.StatusCode)
		}
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	} else {
		var err error
		if body, err = os.ReadFile(source); err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	var items []model.TaskFields
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return items, nil
}

func firstAdmin(users []model.User) *model.User {
	for i := range users {
		if users[i].IsAdmin() {
			return &users[i]
		}
	}
	return nil
}
