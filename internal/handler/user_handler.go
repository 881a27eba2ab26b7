package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tasknest/internal/service"
)

// UserHandler bundles the admin-only identity endpoints.
type UserHandler struct {
	svc service.AdminService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.AdminService) *UserHandler {
	return &UserHandler{svc: svc}
}

// DeleteUserResponse reports how many tasks went with the identity.
type DeleteUserResponse struct {
	ID           string `json:"id"`
	RemovedTasks int    `json:"removedTasks"`
}

// RenameUserRequest carries the new display name.
type RenameUserRequest struct {
	Name string `json:"name" validate:"required"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context(), Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// DeleteUser godoc
// @Summary Delete a user and their tasks
// @Description Removes a non-admin identity with every task it owns or is assigned.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} DeleteUserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	removed, err := h.svc.DeleteUser(c.Request().Context(), Actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, DeleteUserResponse{ID: id, RemovedTasks: removed})
}

// UserTasks godoc
// @Summary Tasks owned by or assigned to a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {array} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/tasks [get]
func (h *UserHandler) UserTasks(c echo.Context) error {
	tasks, err := h.svc.UserTasks(c.Request().Context(), Actor(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// RenameUser godoc
// @Summary Rename a user
// @Description Changes the display name only. Email, id and role are fixed.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body RenameUserRequest true "New name"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) RenameUser(c echo.Context) error {
	var req RenameUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.RenameUser(c.Request().Context(), Actor(c), c.Param("id"), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
