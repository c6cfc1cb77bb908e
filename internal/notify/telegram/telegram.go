package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sync"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/notify"
)

const defaultAPIBase = "https://api.telegram.org"

type Sender struct {
	token    string
	chat     string
	threadID *int
	jalali   bool

	apiBase string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time

	mu           sync.Mutex
	minInterval  time.Duration
	lastSentTime time.Time
}

type Options struct {
	Token    string
	Chat     string
	ThreadID *int
	// Jalali renders the detection time in the Persian calendar.
	Jalali bool
}

func NewSender(opts Options, logger *zap.Logger) *Sender {
	return &Sender{
		token:       opts.Token,
		chat:        opts.Chat,
		threadID:    opts.ThreadID,
		jalali:      opts.Jalali,
		apiBase:     defaultAPIBase,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger.With(zap.String("notifier", "telegram")),
		now:         time.Now,
		minInterval: 1200 * time.Millisecond,
	}
}

// Notify sends one message. Rate limit responses are reported as failed; the
// posting is picked up again on the next cycle.
func (s *Sender) Notify(ctx context.Context, posting model.Posting) notify.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.waitInterval(ctx); err != nil {
		s.logger.Error("telegram send aborted", zap.Error(err))
		return notify.Failed
	}

	retryAfter, err := s.postMessage(ctx, formatMessage(posting, s.formatTime(s.now())))
	s.lastSentTime = s.now()
	if err != nil {
		if retryAfter > 0 {
			s.logger.Warn("telegram rate limit hit", zap.Duration("retry_after", retryAfter), zap.String("url", posting.URL))
			return notify.Failed
		}
		s.logger.Error("telegram send error", zap.String("url", posting.URL), zap.Error(err))
		return notify.Failed
	}

	s.logger.Info("telegram alert sent", zap.String("title", posting.Title))
	return notify.Delivered
}

func (s *Sender) waitInterval(ctx context.Context) error {
	wait := time.Until(s.lastSentTime.Add(s.minInterval))
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Sender) postMessage(ctx context.Context, text string) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0 {
		return time.Duration(parsed.Parameters.RetryAfter) * time.Second, fmt.Errorf("rate limited")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode, parsed.Description)
	}

	return 0, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (s *Sender) formatTime(t time.Time) string {
	if s.jalali {
		return ptime.New(t).Format("yyyy/MM/dd HH:mm")
	}
	return t.UTC().Format(time.RFC3339)
}

func formatMessage(posting model.Posting, detectedAt string) string {
	message := fmt.Sprintf("📢 <b>%s</b>\n🌐 %s\n", html.EscapeString(posting.Title), html.EscapeString(posting.Source))
	if posting.Description != "" {
		message += fmt.Sprintf("📝 %s\n", html.EscapeString(model.Truncate(posting.Description)))
	}
	message += fmt.Sprintf("🕒 %s\n", detectedAt)
	message += fmt.Sprintf("🔗 %s", html.EscapeString(posting.URL))
	return message
}
