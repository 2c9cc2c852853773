package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"todoboard-backend/internal/analytics"
)

// Issuer signs tokens for logged-in users.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

func (i Issuer) Issue(user User) (string, error) {
	return GenerateToken(i.Secret, user, i.TTL)
}

type authResponse struct {
	Token string `json:"token"`
	User  Public `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Routes registers the account API on r.
func Routes(users *Users, issuer Issuer, rec *analytics.Recorder) func(chi.Router) {
	mw := New(issuer.Secret)
	return func(r chi.Router) {
		r.Post("/register", RegisterHandler(users, issuer, rec))
		r.Post("/login", LoginHandler(users, issuer, rec))
		r.With(mw.Optional).Post("/logout", LogoutHandler(rec))
		r.Get("/me", mw.Wrap(MeHandler(users)))
		r.Delete("/me", mw.Wrap(DeleteAccountHandler(users)))
	}
}

// POST /auth/register
func RegisterHandler(users *Users, issuer Issuer, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		user, err := users.Register(body.Name, body.Email, body.Password)
		switch {
		case errors.Is(err, ErrMissingFields):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, ErrUserExists):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			slog.Error("register failed", "error", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
			return
		}

		token, err := issuer.Issue(user)
		if err != nil {
			slog.Error("sign token failed", "error", err)
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}

		env := analytics.FromRequest(r)
		env.UserID = user.ID
		rec.Log(r.Context(), env, "user_registered", map[string]any{
			"has_name": user.Name != "",
		}, analytics.SourceEventKeyFromRequest(r))

		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user.Public()})
	}
}

// POST /auth/login
func LoginHandler(users *Users, issuer Issuer, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		user, err := users.Authenticate(body.Email, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}
		if err != nil {
			slog.Error("login failed", "error", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		token, err := issuer.Issue(user)
		if err != nil {
			slog.Error("sign token failed", "error", err)
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}

		env := analytics.FromRequest(r)
		env.UserID = user.ID
		rec.Log(r.Context(), env, "user_logged_in", nil, analytics.SourceEventKeyFromRequest(r))

		writeJSON(w, http.StatusOK, authResponse{Token: token, User: user.Public()})
	}
}

// GET /auth/me, behind Middleware.Wrap
func MeHandler(users *Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := users.Get(claims.Email)
		if errors.Is(err, ErrUserNotFound) || (err == nil && user.ID != claims.UserID) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "read user failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, user.Public())
	}
}
