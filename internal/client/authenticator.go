package client

import (
	"context"
	"encoding/json"
	"fmt"

	"tasknest/internal/logging"
	"tasknest/internal/model"
	"tasknest/internal/storage"
)

// RemoteAuthenticator resolves credentials against a TaskNest server and keeps the
// resulting token pair under storage.KeyAuthTokens.
type RemoteAuthenticator struct {
	client *Client
	store  storage.Storage
}

// NewRemoteAuthenticator builds an authenticator on top of client and store.
func NewRemoteAuthenticator(client *Client, store storage.Storage) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client, store: store}
}

// Authenticate logs in remotely and stores the token pair.
func (a *RemoteAuthenticator) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	tokens, user, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.saveTokens(ctx, tokens); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates the identity remotely and then logs it in.
func (a *RemoteAuthenticator) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if _, err := a.client.Register(ctx, name, email, password); err != nil {
		return nil, err
	}
	return a.Authenticate(ctx, email, password)
}

// Forget revokes the stored pair on the server, best effort, and drops it locally.
func (a *RemoteAuthenticator) Forget(ctx context.Context) error {
	tokens, err := a.Tokens(ctx)
	if err != nil {
		return err
	}
	if tokens == nil {
		return nil
	}
	if err := a.client.Logout(ctx, *tokens); err != nil {
		logging.Logger.WithError(err).Warn("remote logout failed")
	}
	return a.store.Delete(ctx, storage.KeyAuthTokens)
}

// Verify asks the server who the stored tokens belong to, refreshing the access
// token once if it was rejected. It returns nil when no valid session remains.
func (a *RemoteAuthenticator) Verify(ctx context.Context) (*model.User, error) {
	tokens, err := a.Tokens(ctx)
	if err != nil || tokens == nil {
		return nil, err
	}
	user, err := a.client.CurrentUser(ctx, tokens.AccessToken)
	if err != nil || user != nil {
		return user, err
	}

	access, err := a.client.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		logging.Logger.WithError(err).Debug("token refresh failed")
		return nil, nil
	}
	tokens.AccessToken = access
	if err := a.saveTokens(ctx, tokens); err != nil {
		return nil, err
	}
	return a.client.CurrentUser(ctx, access)
}

// Tokens returns the stored pair, or nil when there is none.
func (a *RemoteAuthenticator) Tokens(ctx context.Context) (*TokenPair, error) {
	data, err := a.store.Get(ctx, storage.KeyAuthTokens)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var tokens TokenPair
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	return &tokens, nil
}

func (a *RemoteAuthenticator) saveTokens(ctx context.Context, tokens *TokenPair) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := a.store.Set(ctx, storage.KeyAuthTokens, data); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}
