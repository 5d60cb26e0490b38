package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"siphon/internal/logging"
	"siphon/internal/telemetry"
)

// NewPahoClient is the production driver factory. Register it under a
// driver name from main():
//
//	mqtt.Register("paho", mqtt.NewPahoClient)
func NewPahoClient(cfg Config) (Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetResumeSubs(true).
		SetOrderMatters(true).
		SetConnectTimeout(cfg.ConnectTimeout)

	if cfg.TLS.Enabled {
		tc, err := newTLSConfig(cfg.TLS)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tc)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		telemetry.Reconnects.Inc()
		logging.L().Warn("paho-driver: connection lost; reconnecting", "broker", cfg.BrokerURL(), "err", err)
	})

	return &pahoClient{cl: paho.NewClient(opts), timeout: cfg.ConnectTimeout}, nil
}

type pahoClient struct {
	cl      paho.Client
	timeout time.Duration
}

func (p *pahoClient) Connect(ctx context.Context) error {
	return p.wait(ctx, p.cl.Connect())
}

func (p *pahoClient) Subscribe(filter string, qos byte, h MessageHandler) error {
	tok := p.cl.Subscribe(filter, qos, func(_ paho.Client, m paho.Message) {
		h(m.Topic(), m.Payload(), m.Duplicate())
	})
	return p.wait(context.Background(), tok)
}

func (p *pahoClient) Unsubscribe(filter string) error {
	return p.wait(context.Background(), p.cl.Unsubscribe(filter))
}

func (p *pahoClient) Disconnect(grace time.Duration) {
	if p.cl.IsConnectionOpen() {
		p.cl.Disconnect(uint(grace.Milliseconds()))
	}
}

func (p *pahoClient) Connected() bool { return p.cl.IsConnectionOpen() }

// Failures returns nil: paho re-dials and re-subscribes on its own.
func (p *pahoClient) Failures() <-chan error { return nil }

// wait blocks on a paho token, bounded by ctx and the connect timeout.
func (p *pahoClient) wait(ctx context.Context, tok paho.Token) error {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", p.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTLSConfig(cfg TLSCfg) (*tls.Config, error) {
	tc := &tls.Config{InsecureSkipVerify: cfg.Insecure}

	if cfg.CAFile != "" {
		ca, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("tls: failed to parse CA certificate %s", cfg.CAFile)
		}
		tc.RootCAs = pool
	}

	if cfg.CertFile != "" || cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		tc.Certificates = []tls.Certificate{cert}
	}
	return tc, nil
}
