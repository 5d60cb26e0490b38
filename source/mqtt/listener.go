package mqtt

import (
	"time"

	"siphon/internal/logging"
	"siphon/internal/telemetry"
)

// listener bridges the driver's push callback to a bounded channel so
// the network goroutine never runs decode or batching work inline.
type listener struct {
	ch chan rawMessage
}

func newListener(capacity int) *listener {
	return &listener{ch: make(chan rawMessage, capacity)}
}

func (l *listener) attach(s *Session, filter string, qos byte) error {
	return s.Subscribe(filter, qos, l.onMessage)
}

// onMessage runs on the driver's network goroutine. When the buffer is
// full the message is dropped and counted instead of stalling the
// broker keep-alive.
func (l *listener) onMessage(topic string, payload []byte, duplicate bool) {
	m := rawMessage{
		topic:     topic,
		payload:   append([]byte(nil), payload...),
		arrival:   time.Now(),
		duplicate: duplicate,
	}
	select {
	case l.ch <- m:
		telemetry.MessagesReceived.Inc()
	default:
		telemetry.MessagesDropped.Inc()
		logging.L().Warn("listener: buffer full; dropping message", "topic", topic)
	}
}

func (l *listener) messages() <-chan rawMessage { return l.ch }
