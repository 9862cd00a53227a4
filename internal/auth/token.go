// Package auth keeps backend session tokens in the OS keyring.
package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/zalando/go-keyring"
)

// ErrNoToken is returned when no token is stored for the user.
var ErrNoToken = errors.New(config.ErrTokenMissing)

// TokenStore persists one bearer token per user name.
type TokenStore struct {
	Service string
}

// NewTokenStore returns a store scoped to the application's keyring service.
func NewTokenStore() *TokenStore {
	return &TokenStore{Service: config.KeyringService}
}

// Save stores or replaces the token of user.
func (s *TokenStore) Save(user, token string) error {
	if err := keyring.Set(s.Service, user, token); err != nil {
		return fmt.Errorf("%s: %w", config.ErrTokenStore, err)
	}
	slog.Debug(config.MsgTokenSaved,
		config.LogKeyComponent, config.CompAuth,
		config.LogKeyUser, user)
	return nil
}

// Token returns the stored token of user, or ErrNoToken.
func (s *TokenStore) Token(user string) (string, error) {
	if user == "" {
		return "", errors.New(config.ErrUserRequired)
	}
	token, err := keyring.Get(s.Service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrTokenStore, err)
	}
	return token, nil
}

// Clear removes the token of user. Clearing a missing token is not an error.
func (s *TokenStore) Clear(user string) error {
	err := keyring.Delete(s.Service, user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s: %w", config.ErrTokenStore, err)
	}
	slog.Debug(config.MsgTokenCleared,
		config.LogKeyComponent, config.CompAuth,
		config.LogKeyUser, user)
	return nil
}

// Secret returns a non-token secret (vCard server password) stored under a
// prefixed account so it never collides with session tokens.
func (s *TokenStore) Secret(user string) (string, error) {
	if user == "" {
		return "", errors.New(config.ErrUserRequired)
	}
	return s.Token(config.SecretAccountPfx + user)
}

// SaveSecret stores a non-token secret for user.
func (s *TokenStore) SaveSecret(user, secret string) error {
	return s.Save(config.SecretAccountPfx+user, secret)
}
