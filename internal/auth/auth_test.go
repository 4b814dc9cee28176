package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hays/backend/pkg/errors"
)

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator("test-secret", "hays-test", time.Hour)
}

func TestResolveCaller_RoundTrip(t *testing.T) {
	a := newTestAuthenticator()

	token, err := a.GenerateToken(Caller{
		ID:         "u1",
		Username:   "alice",
		ProfilePic: "http://pic",
		Role:       "admin",
	})
	require.NoError(t, err)

	caller, err := a.ResolveCaller(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", caller.ID)
	assert.Equal(t, "alice", caller.Username)
	assert.Equal(t, "http://pic", caller.ProfilePic)
	assert.True(t, caller.IsAdmin())
}

func TestResolveCaller_MissingToken(t *testing.T) {
	a := newTestAuthenticator()

	_, err := a.ResolveCaller("")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))
}

func TestResolveCaller_Garbage(t *testing.T) {
	a := newTestAuthenticator()

	_, err := a.ResolveCaller("not.a.token")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))
}

func TestResolveCaller_WrongSecret(t *testing.T) {
	a := newTestAuthenticator()
	other := NewAuthenticator("wrong-secret", "hays-test", time.Hour)

	token, err := other.GenerateToken(Caller{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	_, err = a.ResolveCaller(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))
}

func TestResolveCaller_Expired(t *testing.T) {
	expired := NewAuthenticator("test-secret", "hays-test", -time.Minute)

	token, err := expired.GenerateToken(Caller{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	a := newTestAuthenticator()
	_, err = a.ResolveCaller(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))
}

func TestCaller_IsAdmin(t *testing.T) {
	assert.False(t, Caller{Role: ""}.IsAdmin())
	assert.False(t, Caller{Role: "user"}.IsAdmin())
	assert.True(t, Caller{Role: "admin"}.IsAdmin())
	assert.True(t, Caller{Role: "Admin"}.IsAdmin())
	assert.True(t, Caller{Role: "superadmin"}.IsAdmin())
}
