package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoboard-backend/internal/storage"
)

func TestAnonymousHeader(t *testing.T) {
	s := New(storage.NewMemory())
	s.Restore()

	h := s.Header()
	assert.Equal(t, "Todo App", h.Title)
	assert.False(t, h.LoggedIn)
	assert.Empty(t, h.DisplayName)
	assert.Equal(t, []Link{{"Login", "/login"}, {"Sign Up", "/signup"}}, h.Links)
}

func TestLoginRestoreLogout(t *testing.T) {
	kv := storage.NewMemory()

	s := New(kv)
	require.NoError(t, s.Login("tok", User{Name: "Ada", Email: "ada@example.com"}))
	assert.Equal(t, "Ada", s.Header().DisplayName)

	// a fresh page load restores from storage
	s2 := New(kv)
	s2.Restore()
	require.NotNil(t, s2.User())
	assert.Equal(t, "tok", s2.Token())
	assert.True(t, s2.Header().LoggedIn)

	require.NoError(t, s2.Logout())
	assert.Nil(t, s2.User())
	assert.False(t, s2.Header().LoggedIn)

	s3 := New(kv)
	s3.Restore()
	assert.Nil(t, s3.User())
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	s := New(storage.NewMemory())
	require.NoError(t, s.Login("tok", User{Email: "ada@example.com"}))
	assert.Equal(t, "ada@example.com", s.Header().DisplayName)
}

func TestRestoreNeedsTokenAndUser(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.SetItem("user", `{"email":"a@b.c"}`))

	s := New(kv)
	s.Restore()
	assert.Nil(t, s.User(), "user without token stays logged out")

	require.NoError(t, kv.SetItem("token", "tok"))
	require.NoError(t, kv.SetItem("user", "{broken"))
	s.Restore()
	assert.Nil(t, s.User(), "malformed user stays logged out")
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	s := New(storage.NewMemory())
	assert.Error(t, s.Login("", User{Email: "a@b.c"}))
	assert.Nil(t, s.User())
}

func TestLogoutClearsMemoryEvenIfStorageFails(t *testing.T) {
	kv := storage.NewMemory()
	s := New(kv)
	require.NoError(t, s.Login("tok", User{Email: "a@b.c"}))

	kv.FailWrites = errors.New("disk full")
	assert.Error(t, s.Logout())
	assert.Nil(t, s.User())
}

func TestRestoreNullUserStaysAnonymous(t *testing.T) {
	for _, raw := range []string{"null", "{}", `{"name":" ","email":""}`} {
		kv := storage.NewMemory()
		require.NoError(t, kv.SetItem("token", "tok"))
		require.NoError(t, kv.SetItem("user", raw))

		s := New(kv)
		s.Restore()
		assert.Nil(t, s.User(), raw)
		assert.Empty(t, s.Token(), raw)

		h := s.Header()
		assert.False(t, h.LoggedIn, raw)
		assert.Len(t, h.Links, 2, raw)
	}
}
