package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when login fails or the password is missing.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRegistrationFailed is returned for a missing password or a reserved or taken email.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrNotAuthenticated is returned when an operation needs a current identity and there is none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnauthorized is returned when the actor is neither admin nor owner of the target.
	ErrUnauthorized = errors.New("not allowed")
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound is returned when no identity has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidTask is returned when task fields fail validation.
	ErrInvalidTask = errors.New("invalid task")
	// ErrInvalidAssignee is returned when assignedTo does not reference an existing identity.
	ErrInvalidAssignee = errors.New("assignee does not exist")
	// ErrInvalidName is returned when a display name is blank.
	ErrInvalidName = errors.New("invalid name")
	// ErrCannotDeleteSelf is returned when an admin tries to delete their own account.
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors, possibly wrapped, to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrRegistrationFailed):
		return NewHTTPError(http.StatusConflict, err.Error(), "REGISTRATION_FAILED")
	case errors.Is(err, ErrNotAuthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "NOT_AUTHENTICATED")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrTaskNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TASK_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrInvalidTask):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_TASK")
	case errors.Is(err, ErrInvalidAssignee):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ASSIGNEE")
	case errors.Is(err, ErrInvalidName):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_NAME")
	case errors.Is(err, ErrCannotDeleteSelf):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "CANNOT_DELETE_SELF")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
