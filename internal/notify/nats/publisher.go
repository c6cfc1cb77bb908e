package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/notify"
)

const (
	DefaultSubject = "postings.new"
	connectTimeout = 10 * time.Second
	flushTimeout   = 5 * time.Second
)

type postingEvent struct {
	model.Posting
	NotifiedAt time.Time `json:"notified_at"`
}

// Publisher emits each posting as a JSON message on a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

func Connect(url, subject string, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("freelas-watch"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return NewPublisher(conn, subject, logger), nil
}

func NewPublisher(conn *nats.Conn, subject string, logger *zap.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With(zap.String("notifier", "nats"), zap.String("subject", subject)),
	}
}

// Notify publishes and flushes, so Delivered means the server acknowledged
// the message.
func (p *Publisher) Notify(ctx context.Context, posting model.Posting) notify.Outcome {
	data, err := json.Marshal(postingEvent{Posting: posting, NotifiedAt: time.Now().UTC()})
	if err != nil {
		p.logger.Error("marshaling posting", zap.Error(err))
		return notify.Failed
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Error("failed to publish posting", zap.String("url", posting.URL), zap.Error(err))
		return notify.Failed
	}

	flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		p.logger.Error("failed to flush posting", zap.String("url", posting.URL), zap.Error(err))
		return notify.Failed
	}

	p.logger.Debug("published posting", zap.String("url", posting.URL))
	return notify.Delivered
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
