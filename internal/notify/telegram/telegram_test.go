package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/notify"
)

func newTestSender(t *testing.T, handler http.HandlerFunc, opts Options) *Sender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewSender(opts, zap.NewNop())
	s.apiBase = srv.URL
	s.client = srv.Client()
	s.minInterval = 0
	return s
}

func TestNotifyPostsMessage(t *testing.T) {
	thread := 7
	var got map[string]any
	var path string
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, Options{Token: "123:abc", Chat: "-100", ThreadID: &thread})

	outcome := s.Notify(context.Background(), model.Posting{
		Title:  "Go <backend>",
		URL:    "https://ponisha.ir/project/1/go",
		Source: "ponisha",
	})

	assert.Equal(t, notify.Delivered, outcome)
	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "-100", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.EqualValues(t, 7, got["message_thread_id"])
	assert.Contains(t, got["text"], "Go &lt;backend&gt;")
	assert.Contains(t, got["text"], "https://ponisha.ir/project/1/go")
}

func TestNotifyRateLimitedIsFailed(t *testing.T) {
	calls := 0
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"parameters":{"retry_after":3}}`))
	}, Options{Token: "t", Chat: "c"})

	assert.Equal(t, notify.Failed, s.Notify(context.Background(), model.Posting{Title: "x", URL: "/x"}))
	assert.Equal(t, 1, calls)
}

func TestNotifyBadRequestIsFailed(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}, Options{Token: "t", Chat: "c"})

	assert.Equal(t, notify.Failed, s.Notify(context.Background(), model.Posting{Title: "x", URL: "/x"}))
}

func TestWaitIntervalHonoursContext(t *testing.T) {
	s := NewSender(Options{}, zap.NewNop())
	s.lastSentTime = time.Now()
	s.minInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, notify.Failed, s.Notify(ctx, model.Posting{Title: "x", URL: "/x"}))
}

func TestFormatMessage(t *testing.T) {
	msg := formatMessage(model.Posting{
		Title:       "T",
		URL:         "https://x/1",
		Description: strings.Repeat("a", 300),
		Source:      "99Freelas",
	}, "2026-10-18T00:00:00Z")

	assert.Contains(t, msg, strings.Repeat("a", model.DescriptionLimit)+model.Ellipsis)
	assert.NotContains(t, msg, strings.Repeat("a", model.DescriptionLimit+1))
	assert.Contains(t, msg, "🕒 2026-10-18T00:00:00Z")
}

func TestFormatTimeJalali(t *testing.T) {
	s := NewSender(Options{Jalali: true}, zap.NewNop())
	loc := time.FixedZone("IRST", 3*3600+1800)
	got := s.formatTime(time.Date(2024, 3, 20, 10, 0, 0, 0, loc))
	assert.Equal(t, "1403/01/01 10:00", got)
}
