package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tasknest/internal/errors"
	"tasknest/internal/handler"
	"tasknest/internal/logging"
	"tasknest/internal/service"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth *handler.AuthHandler
	Task *handler.TaskHandler
	User *handler.UserHandler
	Seed *handler.SeedHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, authService service.AuthService, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logging.Logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)

	// Secured routes (require a valid, non-revoked access token)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ContextKey: handler.ActorKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "missing or invalid access token",
				Code:  "INVALID_ACCESS_TOKEN",
			})
		},
	}))

	secured.GET("/me", h.Auth.Me)

	// Task routes
	secured.GET("/tasks", h.Task.ListTasks)
	secured.POST("/tasks", h.Task.CreateTask)
	secured.GET("/tasks/mine", h.Task.MyTasks)
	secured.GET("/tasks/assigned", h.Task.AssignedTasks)
	secured.GET("/tasks/:id", h.Task.GetTask)
	secured.PATCH("/tasks/:id", h.Task.UpdateTask)
	secured.DELETE("/tasks/:id", h.Task.DeleteTask)

	// Admin routes
	secured.GET("/users", h.User.ListUsers)
	secured.PATCH("/users/:id", h.User.RenameUser)
	secured.DELETE("/users/:id", h.User.DeleteUser)
	secured.GET("/users/:id/tasks", h.User.UserTasks)
	secured.POST("/seed/tasks", h.Seed.SeedTasks)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
