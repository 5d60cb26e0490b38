package mqtt

import "fmt"

// Factory builds a Client for one read operation (e.g. the paho driver).
type Factory func(Config) (Client, error)

var registry = map[string]Factory{}

// Register is called from main() or a test to make a driver available.
func Register(name string, f Factory) {
	registry[name] = f
}

// NewClient returns a driver by name ("paho", …).
func NewClient(name string, cfg Config) (Client, error) {
	if f, ok := registry[name]; ok {
		return f(cfg)
	}
	return nil, fmt.Errorf("mqtt: unsupported driver %q", name)
}
