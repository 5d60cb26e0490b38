package mqtt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"siphon/internal/logging"
)

// ConnState is the connection lifecycle of one Session. It is owned by
// the session and never shared across read operations.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateSubscribing
	StateStreaming
	StateClosing
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session owns the physical broker connection for one read operation.
type Session struct {
	cfg    Config
	client Client
	filter string

	state     atomic.Int32
	closeOnce sync.Once
}

// OpenSession dials the broker. It returns a *ConnectionError when the
// broker is unreachable, credentials are rejected, or the TLS handshake
// fails, bounded by cfg.ConnectTimeout.
func OpenSession(ctx context.Context, cfg Config, driver string) (*Session, error) {
	s := &Session{cfg: cfg}
	s.setState(StateConnecting)

	cl, err := NewClient(driver, cfg)
	if err != nil {
		s.setState(StateFailed)
		return nil, &ConnectionError{Broker: cfg.BrokerURL(), Err: err}
	}
	s.client = cl

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := cl.Connect(ctx); err != nil {
		s.setState(StateFailed)
		s.Close()
		return nil, &ConnectionError{Broker: cfg.BrokerURL(), Err: err}
	}

	s.setState(StateConnected)
	logging.L().Debug("session: connected", "broker", cfg.BrokerURL(), "client_id", cfg.ClientID)
	return s, nil
}

// Subscribe registers the topic filter and hands inbound publishes to h
// on the driver's network goroutine.
func (s *Session) Subscribe(filter string, qos byte, h MessageHandler) error {
	if st := s.State(); st != StateConnected {
		return &SubscriptionError{Filter: filter, Err: errors.New("session " + st.String())}
	}
	s.setState(StateSubscribing)
	if err := s.client.Subscribe(filter, qos, h); err != nil {
		s.setState(StateFailed)
		return &SubscriptionError{Filter: filter, Err: err}
	}
	s.filter = filter
	s.setState(StateStreaming)
	logging.L().Info("session: subscribed", "filter", filter, "qos", qos)
	return nil
}

func (s *Session) State() ConnState { return ConnState(s.state.Load()) }

func (s *Session) setState(st ConnState) { s.state.Store(int32(st)) }

// Close drops the subscription and disconnects from the broker.
// Idempotent, safe after a failed open, and the final transition on
// every exit path.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosing)
		if s.client != nil {
			if s.filter != "" && s.client.Connected() {
				if err := s.client.Unsubscribe(s.filter); err != nil {
					logging.L().Warn("session: unsubscribe failed", "filter", s.filter, "err", err)
				}
			}
			s.client.Disconnect(s.cfg.DisconnectGrace)
		}
		s.setState(StateDisconnected)
		logging.L().Debug("session: closed", "broker", s.cfg.BrokerURL())
	})
}
