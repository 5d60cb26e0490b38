package pipeline

import (
	"context"
	"errors"
	"sync"

	"siphon/internal/logging"
	"siphon/internal/state"
	"siphon/sink"
	"siphon/source/mqtt"
)

// Runner drives one read operation end to end: open the stream
// (resuming from the state store), push every emitted batch to the
// sinks, and persist checkpoints as they are acknowledged. The stream
// is finite, so the runner finishes on its own.
type Runner struct {
	srcCfg mqtt.Config
	driver string
	sinks  []sink.Adapter
	store  *state.Store

	ackBound bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func NewRunner(cfg mqtt.Config, driver string, store *state.Store) *Runner {
	return &Runner{
		srcCfg: cfg,
		driver: driver,
		store:  store,
		done:   make(chan struct{}),
	}
}

func (r *Runner) AddSink(s sink.Adapter) { r.sinks = append(r.sinks, s) }

// BindAcks wires each AckAware sink to the checkpoint store. Sinks that
// never ack leave persistence to the runner itself after every push.
func (r *Runner) BindAcks() {
	for _, s := range r.sinks {
		if aw, ok := s.(sink.AckAware); ok {
			aw.BindAck(r.Ack)
			r.ackBound = true
		}
	}
}

// Ack persists a checkpoint. Failures are logged, not fatal: the worst
// case is a wider at-least-once window on the next run.
func (r *Runner) Ack(cp mqtt.Checkpoint) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(cp); err != nil {
		logging.L().Error("runner: checkpoint save failed", "seq", cp.Seq, "err", err)
	}
}

func (r *Runner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	go r.run(ctx)
	return nil
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

	var resume *mqtt.Checkpoint
	if r.store != nil {
		cp, err := r.store.Load()
		if err != nil {
			r.setErr(err)
			return
		}
		resume = cp
		if cp != nil {
			logging.L().Info("runner: resuming", "seq", cp.Seq, "records", cp.Records)
		}
	}

	stream, err := mqtt.Open(ctx, r.srcCfg, r.driver, resume)
	if err != nil {
		r.setErr(err)
		return
	}
	defer stream.Close()

	emitted := 0
	for {
		b, cp, err := stream.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, mqtt.ErrEndOfStream), errors.Is(err, context.Canceled):
			logging.L().Info("runner: stream ended", "batches", emitted)
			return
		default:
			logging.L().Error("runner: stream failed", "batches_before_failure", emitted, "err", err)
			r.setErr(err)
			return
		}

		for _, s := range r.sinks {
			if err := s.Push(b, cp); err != nil {
				r.setErr(err)
				return
			}
		}
		emitted++
		if !r.ackBound {
			r.Ack(cp)
		}
	}
}

// Done is closed once the stream has terminated and the sinks have seen
// every batch.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Err reports why the runner stopped; nil means a graceful end.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Runner) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Close cancels the read operation, waits for the stream to drain, and
// closes every sink.
func (r *Runner) Close() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-r.done

	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
