package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/store"
)

// ErrInvalidCredentials is returned for an unknown user, a wrong password or
// a role mismatch. Callers cannot tell the cases apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticator checks credentials against stored accounts.
type Authenticator struct {
	store store.Store
}

// NewAuthenticator creates an authenticator over s.
func NewAuthenticator(s store.Store) *Authenticator {
	return &Authenticator{store: s}
}

// Verify returns the account matching username and password. A non-empty
// role must match the account role as well.
func (a *Authenticator) Verify(ctx context.Context, username, password, role string) (model.Account, error) {
	account, err := a.store.FindAccountByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return model.Account{}, ErrInvalidCredentials
	}
	if role != "" && role != account.Role {
		return model.Account{}, ErrInvalidCredentials
	}
	return account, nil
}
