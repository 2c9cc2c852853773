package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// app_opened: the frontend reports a page load
func AppOpenedHandler(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ColdStart bool   `json:"cold_start"`
			From      string `json:"from"` // login/signup/direct/unknown
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		if body.From == "" {
			body.From = "unknown"
		}

		props := map[string]any{
			"cold_start": body.ColdStart,
			"from":       body.From,
		}
		rec.Log(r.Context(), FromRequest(r), "app_opened", props, SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// RecentEventsHandler lists recorded events, newest first (?limit=N, default 50).
func RecentEventsHandler(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec.Recent(limit))
	}
}
