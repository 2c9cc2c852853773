package analytics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietRecorder(size int) *Recorder {
	return NewRecorder(size, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client-Id", " c1 ")
	req.Header.Set("X-Platform", "WEB")
	req.Header.Set("X-Device-Locale", "de-DE")
	req = req.WithContext(WithUserID(req.Context(), "u-1"))

	env := FromRequest(req)
	assert.Equal(t, Envelope{
		UserID:       "u-1",
		ClientID:     "c1",
		Platform:     "web",
		DeviceLocale: "de-DE",
	}, env)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Platform", "toaster")
	assert.Equal(t, "unknown", FromRequest(req).Platform)
}

func TestSourceEventKeyPrefersIdempotencyKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Source-Event-Key", "b")
	assert.Equal(t, "b", SourceEventKeyFromRequest(req))

	req.Header.Set("Idempotency-Key", "a")
	assert.Equal(t, "a", SourceEventKeyFromRequest(req))
}

func TestRecorderDedupAndOrder(t *testing.T) {
	rec := quietRecorder(8)
	ctx := context.Background()

	rec.Log(ctx, Envelope{}, "first", nil, "k1")
	rec.Log(ctx, Envelope{}, "dup", nil, "k1")
	rec.Log(ctx, Envelope{}, "second", nil, "")
	rec.Log(ctx, Envelope{}, "", nil, "")

	got := rec.Recent(0)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Name)
	assert.Equal(t, "first", got[1].Name)
	assert.NotEmpty(t, got[0].ID)
}

func TestRecorderRingEvictsOldest(t *testing.T) {
	rec := quietRecorder(2)
	ctx := context.Background()

	rec.Log(ctx, Envelope{}, "a", nil, "ka")
	rec.Log(ctx, Envelope{}, "b", nil, "kb")
	rec.Log(ctx, Envelope{}, "c", nil, "kc")

	got := rec.Recent(10)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Name)
	assert.Equal(t, "b", got[1].Name)

	// an evicted key may be recorded again
	rec.Log(ctx, Envelope{}, "a again", nil, "ka")
	assert.Equal(t, "a again", rec.Recent(1)[0].Name)
}

func TestRecorderUserFromContext(t *testing.T) {
	rec := quietRecorder(4)
	rec.Log(WithUserID(context.Background(), "u-9"), Envelope{}, "x", nil, "")
	assert.Equal(t, "u-9", rec.Recent(1)[0].Envelope.UserID)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Log(context.Background(), Envelope{}, "x", nil, "")
	})
}

func TestRecentEventsHandlerLimit(t *testing.T) {
	rec := quietRecorder(8)
	for _, n := range []string{"a", "b", "c"} {
		rec.Log(context.Background(), Envelope{}, n, nil, "")
	}
	h := RecentEventsHandler(rec)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var events []Event
	require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
	assert.Len(t, events, 2)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
