package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"todoboard-backend/internal/analytics"
	"todoboard-backend/internal/storage"
)

var testSecret = []byte("test-secret")

func newUsers() *Users {
	return NewUsers(storage.NewMemory()).WithCost(bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	users := newUsers()

	u, err := users.Register(" Ada ", " Ada@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	got, err := users.Authenticate("ADA@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.Authenticate("ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate("nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateAndMissing(t *testing.T) {
	users := newUsers()

	_, err := users.Register("", "a@b.c", "pw")
	require.NoError(t, err)

	_, err = users.Register("", "A@B.C", "pw2")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = users.Register("x", "", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = users.Register("x", "d@e.f", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestUsersDelete(t *testing.T) {
	users := newUsers()
	_, err := users.Register("", "a@b.c", "pw")
	require.NoError(t, err)

	require.NoError(t, users.Delete("a@b.c"))
	_, err = users.Get("a@b.c")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenRoundTrip(t *testing.T) {
	user := User{ID: "u-1", Email: "a@b.c", Name: "Ada"}

	token, err := GenerateToken(testSecret, user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.Equal(t, "Ada", claims.Name)
}

func TestParseTokenRejects(t *testing.T) {
	user := User{ID: "u-1", Email: "a@b.c"}

	expired, err := GenerateToken(testSecret, user, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	good, err := GenerateToken(testSecret, user, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken([]byte("other"), good)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(testSecret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareWrap(t *testing.T) {
	mw := New(testSecret)
	token, err := GenerateToken(testSecret, User{ID: "u-1", Email: "a@b.c"}, time.Hour)
	require.NoError(t, err)

	var seen string
	h := mw.Wrap(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		uid, _ := analytics.UserIDFromContext(r.Context())
		assert.Equal(t, seen, uid)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
	assert.Equal(t, "u-1", seen)
}

func TestMiddlewareOptionalNeverRejects(t *testing.T) {
	mw := New(testSecret)

	var withUser bool
	h := mw.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, withUser = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, withUser)
}

func TestAuthHTTPFlow(t *testing.T) {
	users := newUsers()
	issuer := Issuer{Secret: testSecret, TTL: time.Hour}
	rec := analytics.NewRecorder(16, nil)

	srv := httptest.NewServer(newAuthRouter(users, issuer, rec))
	t.Cleanup(srv.Close)

	post := func(path, body string) *http.Response {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("/auth/register", `{"name":"Ada","email":"ada@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reg := decodeAuth(t, resp)
	assert.Equal(t, "Ada", reg.User.Name)
	assert.NotEmpty(t, reg.Token)

	resp = post("/auth/register", `{"email":"ada@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post("/auth/register", `{"email":"","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post("/auth/login", `{"email":"ada@example.com","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("/auth/login", `{"email":"ADA@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeAuth(t, resp)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)

	resp = post("/auth/logout", ``)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer del.Body.Close()
	assert.Equal(t, http.StatusOK, del.StatusCode)

	_, err = users.Get("ada@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	var names []string
	for _, ev := range rec.Recent(0) {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"user_logged_in", "user_registered"}, names)
}

func TestLogoutRecordsTokenHolder(t *testing.T) {
	rec := analytics.NewRecorder(16, nil)
	srv := httptest.NewServer(newAuthRouter(newUsers(), Issuer{Secret: testSecret, TTL: time.Hour}, rec))
	t.Cleanup(srv.Close)

	token, err := GenerateToken(testSecret, User{ID: "u-1", Email: "a@b.c"}, time.Hour)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := rec.Recent(0)
	require.Len(t, events, 1)
	assert.Equal(t, "user_logged_out", events[0].Name)
	assert.Equal(t, "u-1", events[0].Envelope.UserID)
}

func newAuthRouter(users *Users, issuer Issuer, rec *analytics.Recorder) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", Routes(users, issuer, rec))
	return r
}

func decodeAuth(t *testing.T, resp *http.Response) authResponse {
	t.Helper()
	var out authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
