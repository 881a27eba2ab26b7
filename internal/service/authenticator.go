package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tasknest/internal/config"
	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
)

const bcryptCost = 10

// identityNamespace seeds the name-based UUIDs of synthesized identities, so the
// same email always maps to the same id.
var identityNamespace = uuid.MustParse("6f1d3c3e-8a53-4c1b-9d0e-5a7c2f4b9e61")

// Authenticator resolves credentials to an identity. It does not touch the identity set.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, name, email, password string) (*model.User, error)
}

// Deauthenticator is implemented by authenticators that hold credentials of their own
// (such as remote tokens) that must be dropped on logout.
type Deauthenticator interface {
	Forget(ctx context.Context) error
}

type reservedAccount struct {
	user         model.User
	passwordHash []byte
}

// LocalAuthenticator checks the reserved accounts first and otherwise synthesizes an
// identity from the email. Any non-empty password is accepted for non-reserved emails.
type LocalAuthenticator struct {
	reserved map[string]reservedAccount
	order    []string
}

var _ Authenticator = (*LocalAuthenticator)(nil)

// NewLocalAuthenticator hashes the reserved passwords once up front.
func NewLocalAuthenticator(accounts []config.ReservedAccount) (*LocalAuthenticator, error) {
	a := &LocalAuthenticator{reserved: make(map[string]reservedAccount, len(accounts))}
	created := time.Now().UTC()
	for _, acc := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", acc.Email, err)
		}
		name := acc.Name
		if name == "" {
			name = nameFromEmail(acc.Email)
		}
		a.reserved[acc.Email] = reservedAccount{
			user: model.User{
				ID:        acc.ID,
				Email:     acc.Email,
				Name:      name,
				Role:      acc.Role,
				CreatedAt: created,
			},
			passwordHash: hash,
		}
		a.order = append(a.order, acc.Email)
	}
	return a, nil
}

// Authenticate fails with ErrInvalidCredentials on an empty password, an empty email,
// or a reserved email with the wrong password.
func (a *LocalAuthenticator) Authenticate(_ context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if password == "" || email == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	if acc, ok := a.reserved[email]; ok {
		if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
			return nil, apperrors.ErrInvalidCredentials
		}
		user := acc.user
		return &user, nil
	}

	return &model.User{
		ID:        uuid.NewSHA1(identityNamespace, []byte(email)).String(),
		Email:     email,
		Name:      nameFromEmail(email),
		Role:      model.RoleUser,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Register builds a new user-role identity. Duplicate detection against the identity
// set is the caller's job; reserved emails are rejected here.
func (a *LocalAuthenticator) Register(_ context.Context, name, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	switch {
	case password == "":
		return nil, fmt.Errorf("%w: password is required", apperrors.ErrRegistrationFailed)
	case email == "":
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrRegistrationFailed)
	case a.IsReserved(email):
		return nil, fmt.Errorf("%w: email %s is reserved", apperrors.ErrRegistrationFailed, email)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = nameFromEmail(email)
	}
	return &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		Role:      model.RoleUser,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsReserved reports whether email belongs to a predefined account.
func (a *LocalAuthenticator) IsReserved(email string) bool {
	_, ok := a.reserved[email]
	return ok
}

// Reserved returns the predefined identities in configuration order.
func (a *LocalAuthenticator) Reserved() []model.User {
	out := make([]model.User, 0, len(a.order))
	for _, email := range a.order {
		out = append(out, a.reserved[email].user)
	}
	return out
}

// nameFromEmail takes the local part of the address and upper-cases its first letter.
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	r, size := utf8.DecodeRuneInString(local)
	if r == utf8.RuneError {
		return local
	}
	return string(unicode.ToUpper(r)) + local[size:]
}

// resolveIdentity authenticates and then prefers the stored identity with the same
// email, so ids, names and creation times stay stable across logins.
func resolveIdentity(ctx context.Context, users UserService, authn Authenticator, email, password string) (*model.User, error) {
	candidate, err := authn.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	existing, err := users.FindByEmail(ctx, candidate.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		candidate = existing
	}
	return users.UpsertUser(ctx, candidate)
}
