// Package notify defines the delivery contract shared by every outbound channel.
package notify

import (
	"context"

	"freelas-watch/internal/model"
)

type Outcome int

const (
	Failed Outcome = iota
	Delivered
)

func (o Outcome) String() string {
	if o == Delivered {
		return "delivered"
	}
	return "failed"
}

// Notifier delivers one posting per call. Implementations make exactly one
// outbound call, never retry, and report transport errors as Failed.
type Notifier interface {
	Notify(ctx context.Context, posting model.Posting) Outcome
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, posting model.Posting) Outcome

func (f Func) Notify(ctx context.Context, posting model.Posting) Outcome {
	return f(ctx, posting)
}
