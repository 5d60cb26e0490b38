package sink

import (
	"fmt"

	"siphon/source/mqtt"
)

// EmitFn is what a sink calls to notify the pipeline that a checkpoint
// has been durably processed.
type EmitFn func(mqtt.Checkpoint)

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error                    // driver-specific YAML ⇒ struct
	Push(mqtt.Batch, mqtt.Checkpoint) error // consume one emitted batch
	Close() error                           // idempotent
}

// AckAware is *optional*; sinks that defer checkpoint acknowledgement
// simply implement it. The compiler wires the callback if present.
type AckAware interface {
	BindAck(EmitFn)
}

/*──────── registry ───────*/

type factory = func() Adapter

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}
