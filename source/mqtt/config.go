package mqtt

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Format selects the decode strategy for inbound payloads.
type Format string

const (
	FormatBytes  Format = "raw-bytes"
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatSchema Format = "schema-encoded"
)

type TLSCfg struct {
	Enabled  bool   `koanf:"enabled"`
	CAFile   string `koanf:"ca_file"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	Insecure bool   `koanf:"insecure_skip_verify"`
}

type BatchCfg struct {
	MaxSize           int           `koanf:"max_size"`           // records per emitted batch
	InactivityTimeout time.Duration `koanf:"inactivity_timeout"` // idle gap that flushes / ends the stream
	IdleIntervals     int           `koanf:"idle_intervals"`     // consecutive empty timeouts before close
}

// SchemaCfg declares one decodable schema: a set of field names a
// schema-encoded JSON document must carry.
type SchemaCfg struct {
	ID       string   `koanf:"id"`
	Required []string `koanf:"required"`
}

type Config struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	ClientID string `koanf:"client_id"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	TLS      TLSCfg `koanf:"tls"`

	TopicFilter string      `koanf:"topic_filter"` // may contain + / # wildcards
	QoS         byte        `koanf:"qos"`
	Format      Format      `koanf:"format"`
	SchemaID    string      `koanf:"schema_id"`
	Schemas     []SchemaCfg `koanf:"schemas"`

	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	DisconnectGrace time.Duration `koanf:"disconnect_grace"`
	BufferCapacity  int           `koanf:"buffer_capacity"` // listener channel depth
	Batch           BatchCfg      `koanf:"batch"`
}

// BrokerURL renders the paho-style broker address.
func (c Config) BrokerURL() string {
	scheme := "tcp"
	if c.TLS.Enabled {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// LoadConfig merges YAML (if present) with env-vars
// (prefix `SIPHON_MQTT__`, delimiter `__`).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("mqtt schema_version %q not supported (want v1)", sv)
	}

	_ = k.Load(env.Provider("SIPHON_MQTT__", "__", nil), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

func applyDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 1883
	}
	if c.ClientID == "" {
		c.ClientID = "siphon"
	}
	if c.Format == "" {
		c.Format = FormatBytes
	}
	if c.QoS > 2 {
		c.QoS = 2
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.DisconnectGrace == 0 {
		c.DisconnectGrace = 250 * time.Millisecond
	}
	if c.BufferCapacity == 0 {
		c.BufferCapacity = 1024
	}
	if c.Batch.MaxSize == 0 {
		c.Batch.MaxSize = 500
	}
	if c.Batch.InactivityTimeout == 0 {
		c.Batch.InactivityTimeout = 10 * time.Second
	}
	if c.Batch.IdleIntervals == 0 {
		c.Batch.IdleIntervals = 1
	}
}
