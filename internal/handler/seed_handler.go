package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/service"
)

// SeedHandler handles bulk import endpoints.
type SeedHandler struct {
	seedService service.SeedService
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(seedService service.SeedService) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

// SeedTasksResponse represents the seed response.
type SeedTasksResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SeedTasks godoc
// @Summary Import tasks as the calling admin
// @Description Tasks are added in order. The import stops at the first invalid one; earlier ones are kept.
// @Tags seed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []model.TaskFields true "Tasks to import"
// @Success 200 {object} SeedTasksResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /seed/tasks [post]
func (h *SeedHandler) SeedTasks(c echo.Context) error {
	actor := Actor(c)
	if actor == nil {
		return respondError(c, errors.ErrNotAuthenticated)
	}
	if !actor.IsAdmin() {
		return respondError(c, errors.ErrUnauthorized)
	}

	var items []model.TaskFields
	if err := c.Bind(&items); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}

	count, err := h.seedService.ImportTasks(c.Request().Context(), actor, items)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, SeedTasksResponse{
		Message: "tasks imported successfully",
		Count:   count,
	})
}
