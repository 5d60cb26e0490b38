package mqtt

import (
	"errors"
	"fmt"
)

// ErrEndOfStream signals that a stream drained its inactivity window and
// closed gracefully. It is a termination marker, not a failure.
var ErrEndOfStream = errors.New("mqtt: end of stream")

// ConnectionError is fatal to the read operation: unreachable broker,
// rejected credentials, or a failed TLS handshake. Never retried here.
type ConnectionError struct {
	Broker string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mqtt: connect %s: %v", e.Broker, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SubscriptionError is fatal to the read operation: the broker rejected
// the topic filter, or the session was not connected.
type SubscriptionError struct {
	Filter string
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("mqtt: subscribe %q: %v", e.Filter, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// DecodeError is recoverable per message: the record is surfaced with an
// error marker and stays in its batch.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mqtt: decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
