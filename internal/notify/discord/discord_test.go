package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/notify"
)

func TestNotifySendsEmbed(t *testing.T) {
	var got payload
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, srv.Client(), zap.NewNop())
	wh.now = func() time.Time { return time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC) }

	outcome := wh.Notify(context.Background(), model.Posting{
		Title:       "API em NestJS",
		URL:         "https://www.99freelas.com.br/project/api-1",
		Description: strings.Repeat("d", 300),
		Source:      "99Freelas",
	})

	assert.Equal(t, notify.Delivered, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Len(t, got.Embeds, 1)

	e := got.Embeds[0]
	assert.Equal(t, "Nova Vaga em: 99Freelas", e.Title)
	assert.Equal(t, "https://www.99freelas.com.br/project/api-1", e.URL)
	assert.Equal(t, embedColor, e.Color)
	assert.Equal(t, "2026-10-18T12:30:00Z", e.Timestamp)
	assert.Equal(t, footerText, e.Footer.Text)
	assert.True(t, strings.HasPrefix(e.Description, "**API em NestJS**\n\n"))
	assert.True(t, strings.HasSuffix(e.Description, strings.Repeat("d", model.DescriptionLimit)+model.Ellipsis))
}

func TestNotifyNonSuccessIsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Unknown Webhook"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, srv.Client(), zap.NewNop())
	assert.Equal(t, notify.Failed, wh.Notify(context.Background(), model.Posting{Title: "t", URL: "/u"}))
}

func TestNotifyUnreachableIsFailed(t *testing.T) {
	wh := NewWebhook("http://127.0.0.1:1/webhook", nil, zap.NewNop())
	assert.Equal(t, notify.Failed, wh.Notify(context.Background(), model.Posting{Title: "t", URL: "/u"}))
}
