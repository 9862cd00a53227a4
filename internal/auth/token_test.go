package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-tracker/internal/auth"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/zalando/go-keyring"
)

func TestTokenStore_Lifecycle(t *testing.T) {
	keyring.MockInit()
	store := auth.NewTokenStore()

	_, err := store.Token("alice")
	assert.ErrorIs(t, err, auth.ErrNoToken)

	require.NoError(t, store.Save("alice", "tok-1"))
	token, err := store.Token("alice")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Save("alice", "tok-2"))
	token, err = store.Token("alice")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token, "last save wins")

	require.NoError(t, store.Clear("alice"))
	_, err = store.Token("alice")
	assert.ErrorIs(t, err, auth.ErrNoToken)

	assert.NoError(t, store.Clear("alice"), "clearing twice is harmless")
}

func TestTokenStore_UsersAreIsolated(t *testing.T) {
	keyring.MockInit()
	store := auth.NewTokenStore()

	require.NoError(t, store.Save("alice", "a"))
	require.NoError(t, store.Save("bob", "b"))

	a, _ := store.Token("alice")
	b, _ := store.Token("bob")
	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)
}

func TestTokenStore_SecretsDoNotCollideWithTokens(t *testing.T) {
	keyring.MockInit()
	store := auth.NewTokenStore()

	require.NoError(t, store.Save("alice", "session"))
	require.NoError(t, store.SaveSecret("alice", "dav-password"))

	token, err := store.Token("alice")
	require.NoError(t, err)
	secret, err := store.Secret("alice")
	require.NoError(t, err)

	assert.Equal(t, "session", token)
	assert.Equal(t, "dav-password", secret)
}

func TestTokenStore_UserRequired(t *testing.T) {
	keyring.MockInit()
	store := auth.NewTokenStore()

	_, err := store.Token("")
	assert.EqualError(t, err, config.ErrUserRequired)
	_, err = store.Secret("")
	assert.EqualError(t, err, config.ErrUserRequired)
}
