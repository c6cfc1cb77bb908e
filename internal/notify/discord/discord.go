package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/notify"
)

const (
	embedColor  = 0x0099ff
	footerText  = "Job Monitor Bot"
	sendTimeout = 15 * time.Second
)

// Webhook posts one embed per posting to a Discord webhook url.
type Webhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewWebhook(url string, client *http.Client, logger *zap.Logger) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	return &Webhook{
		url:    url,
		client: client,
		logger: logger.With(zap.String("notifier", "discord")),
		now:    time.Now,
	}
}

type payload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
	Footer      footer `json:"footer"`
}

type footer struct {
	Text string `json:"text"`
}

func (w *Webhook) Notify(ctx context.Context, posting model.Posting) notify.Outcome {
	if err := w.send(ctx, posting); err != nil {
		w.logger.Error("notification failed", zap.String("url", posting.URL), zap.Error(err))
		return notify.Failed
	}
	w.logger.Info("notification sent", zap.String("title", posting.Title))
	return notify.Delivered
}

func (w *Webhook) send(ctx context.Context, posting model.Posting) error {
	body, err := json.Marshal(w.buildPayload(posting))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord error: %d %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}

func (w *Webhook) buildPayload(posting model.Posting) payload {
	return payload{Embeds: []embed{{
		Title:       "Nova Vaga em: " + posting.Source,
		Description: fmt.Sprintf("**%s**\n\n%s", posting.Title, model.Truncate(posting.Description)),
		URL:         posting.URL,
		Color:       embedColor,
		Timestamp:   w.now().UTC().Format(time.RFC3339),
		Footer:      footer{Text: footerText},
	}}}
}
