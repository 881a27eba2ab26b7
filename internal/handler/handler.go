package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tasknest/internal/errors"
	"tasknest/internal/logging"
	"tasknest/internal/model"
)

// ActorKey is the echo context key holding the authenticated *model.User.
const ActorKey = "actor"

// SetActor stores the authenticated identity on the request context.
func SetActor(c echo.Context, user *model.User) {
	c.Set(ActorKey, user)
}

// Actor returns the authenticated identity, or nil on public routes.
func Actor(c echo.Context) *model.User {
	user, _ := c.Get(ActorKey).(*model.User)
	return user
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logging.Logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}
	return nil
}
