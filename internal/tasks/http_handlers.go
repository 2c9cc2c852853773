package tasks

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"todoboard-backend/internal/analytics"
)

// -------------------------------
// HELPERS
// -------------------------------

func boardFromRequest(w http.ResponseWriter, r *http.Request, reg *Registry) (*Board, bool) {
	clientID := strings.TrimSpace(r.Header.Get("X-Client-Id"))
	if clientID == "" {
		clientID = DefaultClientID
	}
	if !ValidClientID(clientID) {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return nil, false
	}
	return reg.Board(clientID), true
}

func taskIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logCompletion emits task_completed / task_uncompleted for a changed task.
func logCompletion(rec *analytics.Recorder, r *http.Request, t Task, from string) {
	props := map[string]any{
		"task_id": t.ID,
		"source":  from,
	}

	name := "task_uncompleted"
	if t.Completed {
		name = "task_completed"
		if created, err := t.Created(); err == nil {
			props["time_since_created_sec"] = int(time.Since(created).Seconds())
		}
	}

	rec.Log(r.Context(), analytics.FromRequest(r), name, props, analytics.SourceEventKeyFromRequest(r))
}

// -------------------------------
// ROUTES
// -------------------------------

// Routes registers the board API on r.
func Routes(reg *Registry, rec *analytics.Recorder) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/tasks", ListTasksHandler(reg))
		r.Post("/tasks", CreateTaskHandler(reg, rec))
		r.Get("/tasks/stats", StatsHandler(reg))
		r.Post("/tasks/{id}/toggle", ToggleTaskHandler(reg, rec))
		r.Put("/tasks/{id}/status", SetTaskStatusHandler(reg, rec))
		r.Delete("/tasks/{id}", DeleteTaskHandler(reg, rec))

		r.Post("/drag/start", DragStartHandler(reg))
		r.Post("/drag/over", DragOverHandler(reg))
		r.Post("/drag/drop", DropHandler(reg, rec))
	}
}

// -------------------------------
// HANDLERS
// -------------------------------

func ListTasksHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, SplitColumns(b.Store.Tasks()))
	}
}

func StatsHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, b.Store.Stats())
	}
}

func CreateTaskHandler(reg *Registry, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}

		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, created := b.Store.AddTask(body.Text)
		if !created {
			// blank text is silently ignored
			writeJSON(w, http.StatusOK, map[string]any{"created": false})
			return
		}

		rec.Log(r.Context(), analytics.FromRequest(r), "task_created", map[string]any{
			"task_id":  t.ID,
			"text_len": len(t.Text),
		}, analytics.SourceEventKeyFromRequest(r))

		writeJSON(w, http.StatusCreated, t)
	}
}

func ToggleTaskHandler(reg *Registry, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}
		id, ok := taskIDFromURL(w, r)
		if !ok {
			return
		}

		t, changed := b.Store.ToggleTask(id)
		if !changed {
			writeJSON(w, http.StatusOK, map[string]any{"changed": false})
			return
		}

		logCompletion(rec, r, t, "toggle")
		writeJSON(w, http.StatusOK, t)
	}
}

func SetTaskStatusHandler(reg *Registry, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}
		id, ok := taskIDFromURL(w, r)
		if !ok {
			return
		}

		var body struct {
			Completed *bool `json:"completed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Completed == nil {
			http.Error(w, "completed required", http.StatusBadRequest)
			return
		}

		t, changed := b.Store.SetCompleted(id, *body.Completed)
		if !changed {
			writeJSON(w, http.StatusOK, map[string]any{"changed": false})
			return
		}

		logCompletion(rec, r, t, "status")
		writeJSON(w, http.StatusOK, t)
	}
}

func DeleteTaskHandler(reg *Registry, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}
		id, ok := taskIDFromURL(w, r)
		if !ok {
			return
		}

		if t, removed := b.Store.DeleteTask(id); removed {
			rec.Log(r.Context(), analytics.FromRequest(r), "task_deleted", map[string]any{
				"task_id":   t.ID,
				"completed": t.Completed,
			}, analytics.SourceEventKeyFromRequest(r))
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DragStartHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}

		var body struct {
			ID int64 `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if _, found := b.Drag.BeginDragID(body.ID); !found {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"drag": b.Drag.Current()})
	}
}

func DragOverHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"accept": b.Drag.DragOver()})
	}
}

func DropHandler(reg *Registry, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := boardFromRequest(w, r, reg)
		if !ok {
			return
		}

		var body struct {
			Zone string `json:"zone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		zone, err := ParseZone(body.Zone)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		tr, t, changed := b.Drag.Drop(zone)
		if changed {
			rec.Log(r.Context(), analytics.FromRequest(r), "task_dropped", map[string]any{
				"task_id": t.ID,
				"zone":    string(zone),
			}, "")
			logCompletion(rec, r, t, "drag")
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"transition": tr,
			"changed":    changed,
			"board":      SplitColumns(b.Store.Tasks()),
		})
	}
}
