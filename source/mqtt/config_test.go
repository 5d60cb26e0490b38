package mqtt

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mqtt_source.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "schema_version: v1\nhost: broker.local\ntopic_filter: sensors/#\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 1883 {
		t.Fatalf("want default port 1883, got %d", cfg.Port)
	}
	if cfg.Format != FormatBytes {
		t.Fatalf("want default format %s, got %s", FormatBytes, cfg.Format)
	}
	if cfg.Batch.InactivityTimeout != 10*time.Second {
		t.Fatalf("want default inactivity timeout 10s, got %s", cfg.Batch.InactivityTimeout)
	}
	if cfg.Batch.MaxSize != 500 || cfg.Batch.IdleIntervals != 1 {
		t.Fatalf("batch defaults not applied: %+v", cfg.Batch)
	}
	if cfg.BufferCapacity != 1024 || cfg.ConnectTimeout != 10*time.Second {
		t.Fatalf("session defaults not applied: %+v", cfg)
	}
	if cfg.BrokerURL() != "tcp://broker.local:1883" {
		t.Fatalf("unexpected broker url %q", cfg.BrokerURL())
	}
}

func TestLoadConfig_FullDocument(t *testing.T) {
	path := writeConfig(t, `schema_version: v1
host: mq.example.com
port: 8883
client_id: ingest-1
username: u
password: p
tls:
  enabled: true
  ca_file: /etc/ssl/ca.pem
topic_filter: plant/+/telemetry
qos: 1
format: schema-encoded
schema_id: reading
schemas:
  - id: reading
    required: [device, value]
connect_timeout: 3s
batch:
  max_size: 64
  inactivity_timeout: 5s
  idle_intervals: 2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BrokerURL() != "ssl://mq.example.com:8883" {
		t.Fatalf("tls scheme not applied: %q", cfg.BrokerURL())
	}
	if cfg.QoS != 1 || cfg.Format != FormatSchema || cfg.SchemaID != "reading" {
		t.Fatalf("subscription params not parsed: %+v", cfg)
	}
	if len(cfg.Schemas) != 1 || len(cfg.Schemas[0].Required) != 2 {
		t.Fatalf("schemas not parsed: %+v", cfg.Schemas)
	}
	if cfg.Batch.MaxSize != 64 || cfg.Batch.InactivityTimeout != 5*time.Second || cfg.Batch.IdleIntervals != 2 {
		t.Fatalf("batch section not parsed: %+v", cfg.Batch)
	}
	if cfg.ConnectTimeout != 3*time.Second {
		t.Fatalf("connect_timeout not parsed: %s", cfg.ConnectTimeout)
	}
}

func TestLoadConfig_InvalidSchemaVersion(t *testing.T) {
	path := writeConfig(t, "schema_version: v999\nhost: h\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported schema_version")
	}
}
