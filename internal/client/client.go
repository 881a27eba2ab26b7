// Package client talks to a TaskNest server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/logging"
	"tasknest/internal/model"
)

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps well-known error codes back to the sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "INVALID_CREDENTIALS":
		return apperrors.ErrInvalidCredentials
	case "REGISTRATION_FAILED":
		return apperrors.ErrRegistrationFailed
	case "NOT_AUTHENTICATED", "INVALID_ACCESS_TOKEN":
		return apperrors.ErrNotAuthenticated
	case "FORBIDDEN":
		return apperrors.ErrUnauthorized
	}
	return nil
}

// Client is a thin HTTP client. Every call goes through one circuit breaker;
// there is no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// New builds a client for the server at baseURL, e.g. http://localhost:8080.
// httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "tasknest-api",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Infof("circuit breaker %s changed from %s to %s", name, from.String(), to.String())
			},
		}),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}

type registerResponse struct {
	User *model.User `json:"user"`
}

// Login exchanges credentials for a token pair and the identity they belong to.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, nil, err
	}
	if resp.User == nil || resp.AccessToken == "" {
		return nil, nil, errors.New("login response without user or token")
	}
	return &TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, resp.User, nil
}

// Register creates the identity on the server. It does not log in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	var resp registerResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", registerRequest{Name: name, Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, errors.New("register response without user")
	}
	return resp.User, nil
}

// Refresh returns a new access token for refreshToken.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// CurrentUser returns the identity behind accessToken, or nil when the server
// rejects the token.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodGet, "/api/me", accessToken, nil, &user)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the pair on the server.
func (c *Client) Logout(ctx context.Context, tokens TokenPair) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", tokens.AccessToken, refreshRequest{RefreshToken: tokens.RefreshToken}, nil)
}

type rawResponse struct {
	status int
	body   []byte
}

// do sends one request. Only transport failures and 5xx answers count against the
// breaker; 4xx answers are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, decodeError(resp.StatusCode, body)
		}
		return &rawResponse{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	raw := result.(*rawResponse)
	if raw.status >= http.StatusBadRequest {
		return decodeError(raw.status, raw.body)
	}
	if out == nil || len(raw.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var resp apperrors.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		apiErr.Code = resp.Code
		apiErr.Message = resp.Error
		return apiErr
	}
	var plain struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.Message != "" {
		apiErr.Message = plain.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
