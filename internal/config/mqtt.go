package config

import (
	mcfg "siphon/source/mqtt"
)

// LoadSourceConfig delegates to the MQTT source loader while centralizing
// loader entrypoints under internal/config.
func LoadSourceConfig(path string) (mcfg.Config, error) {
	return mcfg.LoadConfig(path)
}
