package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "tasknest/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"tasknest/internal/auth"
	"tasknest/internal/cache"
	"tasknest/internal/config"
	"tasknest/internal/handler"
	"tasknest/internal/logging"
	"tasknest/internal/model"
	"tasknest/internal/repository"
	"tasknest/internal/router"
	"tasknest/internal/service"
	"tasknest/internal/storage"
)

// @title TaskNest API
// @version 1.0
// @description Task tracker API with owner-or-admin access control and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)
	log := logging.Logger

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}
	defer closeStore()
	log.WithField("driver", cfg.StorageDriver).Info("storage ready")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable; caching disabled and refresh tokens will not persist")
	}

	accounts, err := cfg.ReservedAccounts()
	if err != nil {
		log.Fatalf("reserved accounts: %v", err)
	}
	authn, err := service.NewLocalAuthenticator(accounts)
	if err != nil {
		log.Fatalf("authenticator init: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(store)
	taskRepo := repository.NewTaskRepository(store)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient)
	taskService := service.NewTaskService(taskRepo, userService)
	adminService := service.NewAdminService(userService, taskService)
	seedService := service.NewSeedService(userService, taskService)
	taskService.Subscribe(func(tasks []model.Task) {
		log.WithField("tasks", len(tasks)).Debug("task collection changed")
	})
	authService := service.NewAuthService(userService, authn, jwtService, tokenStore)

	created, updated, err := seedService.SeedUsers(ctx, authn.Reserved())
	if err != nil {
		log.Fatalf("seed reserved accounts: %v", err)
	}
	log.Infof("reserved accounts ready (%d created, %d updated)", created, updated)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, authService, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		Task: handler.NewTaskHandler(taskService),
		User: handler.NewUserHandler(adminService),
		Seed: handler.NewSeedHandler(seedService),
	})

	log.Infof("Swagger documentation available at: %s", swaggerURL(cfg))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	log.Info("server stopped")
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
