// siphon/sink/stdout/driver.go
package stdout

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"siphon/sink"
	"siphon/source/mqtt"
)

/* ────────── public YAML config ────────── */
type Config struct {
	PrintSummary   bool `yaml:"print_summary"`    // one line per batch
	PrintRecords   bool `yaml:"print_records"`    // JSON per record
	RecordMaxBytes int  `yaml:"record_max_bytes"` // 0 = unlimited
	BatchSize      int  `yaml:"ack_batch_size"`   // 0 = disabled
	FlushMS        int  `yaml:"ack_flush_ms"`     // 0 = disabled
}

/* ────────── driver ────────── */
type driver struct {
	cfg Config
	ack sink.EmitFn

	mu      sync.Mutex // guards pending+timer
	pending []mqtt.Checkpoint
	timer   *time.Timer // nil → no timer armed
}

var seq uint64

/* ────────── sink.Adapter ────────── */
func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(b mqtt.Batch, cp mqtt.Checkpoint) error {
	if d.cfg.PrintSummary {
		first, last := b.Span()
		fmt.Printf("[sink %06d] seq=%d records=%d span=%s..%s\n",
			atomic.AddUint64(&seq, 1),
			cp.Seq, b.Count(),
			first.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano))
	}

	if d.cfg.PrintRecords {
		for _, rec := range b.Records {
			line, err := json.Marshal(rec.Fields)
			if err != nil {
				line = []byte(fmt.Sprintf("%v", rec.Fields))
			}
			if max := d.cfg.RecordMaxBytes; max > 0 && len(line) > max {
				line = line[:max]
			}
			fmt.Printf("%s %s %s\n", rec.Arrival.Format(time.RFC3339Nano), rec.Topic, line)
		}
	}

	d.mu.Lock()
	d.pending = append(d.pending, cp)

	/* 1. flush on batch size */
	if d.cfg.BatchSize > 0 && len(d.pending) >= d.cfg.BatchSize {
		d.flushLocked()
		d.mu.Unlock()
		return nil
	}

	/* 2. (re)-arm the one-shot timer if needed */
	if d.cfg.FlushMS > 0 && d.timer == nil {
		d.timer = time.AfterFunc(
			time.Duration(d.cfg.FlushMS)*time.Millisecond,
			d.timerFlush,
		)
	}
	d.mu.Unlock()
	return nil
}

func (d *driver) Close() error {
	d.mu.Lock()
	d.flushLocked()
	d.mu.Unlock()
	return nil
}

/* ────────── sink.AckAware ────────── */
func (d *driver) BindAck(fn sink.EmitFn) { d.ack = fn }

/* ────────── internals ────────── */

// called by the background timer goroutine
func (d *driver) timerFlush() {
	d.mu.Lock()
	d.flushLocked()
	d.mu.Unlock()
}

// must be called with d.mu *held*
func (d *driver) flushLocked() {
	if len(d.pending) == 0 || d.ack == nil {
		d.stopTimerLocked()
		return
	}
	// later checkpoints cover earlier ones; acking the newest is enough
	d.ack(d.pending[len(d.pending)-1])
	d.pending = d.pending[:0]
	d.stopTimerLocked() // re-arm on next Push if needed
}

func (d *driver) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
