package auth

import (
	"net/http"

	"todoboard-backend/internal/analytics"
)

// LogoutHandler acknowledges a logout, recording it when the caller still
// presents a valid token.
func LogoutHandler(rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Tokens are stateless: the client forgets its token and user.
		if uid, ok := UserIDFromContext(r.Context()); ok {
			env := analytics.FromRequest(r)
			env.UserID = uid
			rec.Log(r.Context(), env, "user_logged_out", nil, analytics.SourceEventKeyFromRequest(r))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok": true,
		})
	}
}

// DeleteAccountHandler removes the caller's account. Boards are keyed by
// client, not by user, so task data is left alone.
func DeleteAccountHandler(users *Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := users.Get(claims.Email)
		if err != nil || user.ID != claims.UserID {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}

		if err := users.Delete(user.Email); err != nil {
			http.Error(w, "delete user failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"ok": true,
		})
	}
}
