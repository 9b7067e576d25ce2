package notify

import (
	"context"

	"mingle/websocket"
)

// HubSink delivers envelopes to websocket clients connected to this process.
type HubSink struct {
	hub *websocket.Hub
}

func NewHubSink(hub *websocket.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Publish(ctx context.Context, channel string, payload any) error {
	env, ok := payload.(*Envelope)
	if !ok {
		return nil
	}
	s.hub.SendToUsers(env.Recipients, &websocket.Event{
		Event: "new_message",
		Data:  env,
	})
	return nil
}

func (s *HubSink) Close() error { return nil }
