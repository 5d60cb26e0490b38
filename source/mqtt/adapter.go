package mqtt

import (
	"context"
	"time"
)

// MessageHandler is invoked by the driver's network goroutine for each
// inbound publish. It must return quickly; downstream work is queued.
type MessageHandler func(topic string, payload []byte, duplicate bool)

// Client is the broker driver behind a Session (paho in production,
// fakes in tests).
type Client interface {
	Connect(context.Context) error
	Subscribe(filter string, qos byte, h MessageHandler) error
	Unsubscribe(filter string) error
	Disconnect(grace time.Duration)
	Connected() bool

	// Failures reports unrecoverable transport errors. A nil channel
	// means the driver recovers on its own.
	Failures() <-chan error
}
