package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/service"
)

// TaskHandler handles task endpoints. Every route requires an authenticated actor.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     string         `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Completed   bool           `json:"completed"`
	AssignedTo  string         `json:"assignedTo"`
}

// UpdateTaskRequest represents a partial task update. Omitted fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *model.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string         `json:"dueDate"`
	Completed   *bool           `json:"completed"`
	AssignedTo  *string         `json:"assignedTo"`
}

// DeleteTaskResponse represents a task deletion response.
type DeleteTaskResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ListTasks godoc
// @Summary List visible tasks
// @Description Admins see every task; other users see the tasks they own or are assigned.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param filter query string false "all, active or completed"
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	return h.list(c, func(actor *model.User) ([]model.Task, error) {
		return h.tasks.AllTasks(c.Request().Context(), actor)
	})
}

// MyTasks godoc
// @Summary List tasks owned by the caller
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param filter query string false "all, active or completed"
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks/mine [get]
func (h *TaskHandler) MyTasks(c echo.Context) error {
	return h.list(c, func(actor *model.User) ([]model.Task, error) {
		return h.tasks.UserTasks(c.Request().Context(), actor.ID)
	})
}

// AssignedTasks godoc
// @Summary List tasks assigned to the caller
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param filter query string false "all, active or completed"
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks/assigned [get]
func (h *TaskHandler) AssignedTasks(c echo.Context) error {
	return h.list(c, func(actor *model.User) ([]model.Task, error) {
		return h.tasks.AssignedTasks(c.Request().Context(), actor.ID)
	})
}

func (h *TaskHandler) list(c echo.Context, fetch func(*model.User) ([]model.Task, error)) error {
	actor := Actor(c)
	if actor == nil {
		return respondError(c, errors.ErrNotAuthenticated)
	}
	filter, err := model.ParseTaskFilter(c.QueryParam("filter"))
	if err != nil {
		return badRequest(err.Error(), "INVALID_FILTER")
	}
	tasks, err := fetch(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, service.FilterTasks(tasks, filter))
}

// CreateTask godoc
// @Summary Create a task owned by the caller
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task fields"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.AddTask(c.Request().Context(), Actor(c), model.TaskFields{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

// GetTask godoc
// @Summary Get a task
// @Description Tasks the caller may not view are reported as not found.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	actor := Actor(c)
	if actor == nil {
		return respondError(c, errors.ErrNotAuthenticated)
	}
	task, err := h.tasks.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if !service.CanView(actor, task) {
		return respondError(c, errors.ErrTaskNotFound)
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Admins and owners may change any field. An assignee may only change completed.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch := model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		AssignedTo:  req.AssignedTo,
	}
	if patch.Empty() {
		return badRequest("no fields to update", "EMPTY_PATCH")
	}

	task, err := h.tasks.UpdateTask(c.Request().Context(), Actor(c), c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Only an admin or the task's owner may delete it.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} DeleteTaskResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id := c.Param("id")
	if err := h.tasks.DeleteTask(c.Request().Context(), Actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, DeleteTaskResponse{Message: "task deleted", ID: id})
}
