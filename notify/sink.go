package notify

import (
	"context"
	"fmt"

	"mingle/models"
)

// Sink is a one-way, best-effort publish target. Publish failures are the
// caller's to log and drop; a committed send is reported as successful no
// matter what the sink does.
type Sink interface {
	Publish(ctx context.Context, channel string, payload any) error
	Close() error
}

// Envelope is the payload published when a message is sent. Recipients is a
// routing hint for in-process delivery; external consumers subscribe by
// channel.
type Envelope struct {
	EventID    string                  `json:"event_id"`
	Type       string                  `json:"type"`
	Recipients []int64                 `json:"recipients"`
	Message    *models.MessageResponse `json:"message"`
}

// ChatChannel is the channel key for one conversation's events.
func ChatChannel(conversationID int64) string {
	return fmt.Sprintf("chat/%d", conversationID)
}

// Multi fans a publish out to several sinks, returning the first error after
// attempting all of them.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, channel string, payload any) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Publish(ctx, channel, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) Close() error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
