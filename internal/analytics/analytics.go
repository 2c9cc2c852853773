package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type CtxKey string

const (
	ctxUserIDKey CtxKey = "analytics_user_id"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID       string `json:"user_id,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	Platform     string `json:"platform"`
	AppVersion   string `json:"app_version,omitempty"`
	DeviceLocale string `json:"device_locale,omitempty"`
}

type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Time       time.Time      `json:"time"`
	Envelope   Envelope       `json:"envelope"`
	Properties map[string]any `json:"properties,omitempty"`
}

// FromRequest extracts event envelope fields from request.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.TrimSpace(r.Header.Get("X-Platform"))
	if platform == "" {
		platform = "unknown"
	} else {
		platform = strings.ToLower(platform)
		if platform != "ios" && platform != "android" && platform != "web" && platform != "cli" {
			platform = "unknown"
		}
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	env := Envelope{
		ClientID:     strings.TrimSpace(r.Header.Get("X-Client-Id")),
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
	if uid, ok := UserIDFromContext(r.Context()); ok {
		env.UserID = uid
	}
	return env
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ctxUserIDKey).(string)
	return uid, ok && uid != ""
}

// Client-provided idempotency key (optional)
// If present and already recorded, the event is dropped.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Recorder keeps the most recent events in a ring buffer and mirrors each
// one to slog. Task text never goes in here, only lengths and ids.
type Recorder struct {
	mu     sync.Mutex
	log    *slog.Logger
	events []Event
	next   int
	full   bool
	keys   map[string]struct{}
}

func NewRecorder(size int, log *slog.Logger) *Recorder {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		log:    log,
		events: make([]Event, size),
		keys:   map[string]struct{}{},
	}
}

// Log records one event. It never fails the caller: a nil recorder or an
// empty name is ignored, and a repeated source key is dropped.
func (rec *Recorder) Log(ctx context.Context, env Envelope, eventName string, props map[string]any, sourceEventKey string) {
	if rec == nil || eventName == "" {
		return
	}

	if env.UserID == "" {
		if uid, ok := UserIDFromContext(ctx); ok {
			env.UserID = uid
		}
	}

	id := sourceEventKey
	if id == "" {
		id = uuid.NewString()
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if _, dup := rec.keys[id]; dup {
		return
	}

	ev := Event{
		ID:         id,
		Name:       eventName,
		Time:       time.Now().UTC(),
		Envelope:   env,
		Properties: props,
	}

	if old := rec.events[rec.next]; rec.full {
		delete(rec.keys, old.ID)
	}
	rec.events[rec.next] = ev
	rec.keys[id] = struct{}{}
	rec.next = (rec.next + 1) % len(rec.events)
	if rec.next == 0 {
		rec.full = true
	}

	rec.log.LogAttrs(ctx, slog.LevelInfo, "analytics event",
		slog.String("event", eventName),
		slog.String("event_id", id),
		slog.String("user_id", env.UserID),
		slog.String("client_id", env.ClientID),
		slog.String("platform", env.Platform),
		slog.Any("props", props),
	)
}

// Recent returns up to limit events, newest first.
func (rec *Recorder) Recent(limit int) []Event {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	n := rec.next
	if rec.full {
		n = len(rec.events)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (rec.next - i + len(rec.events)) % len(rec.events)
		out = append(out, rec.events[idx])
	}
	return out
}
