package mqtt

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"siphon/internal/logging"
	"siphon/internal/telemetry"
)

// LoopState is the ingestion loop's position in its lifecycle. Closed
// and Failed are terminal; both guarantee session teardown first.
type LoopState int32

const (
	LoopIdle LoopState = iota
	LoopConnecting
	LoopSubscribed
	LoopStreaming
	LoopDraining
	LoopClosed
	LoopFailed
)

func (s LoopState) String() string {
	switch s {
	case LoopIdle:
		return "idle"
	case LoopConnecting:
		return "connecting"
	case LoopSubscribed:
		return "subscribed"
	case LoopStreaming:
		return "streaming"
	case LoopDraining:
		return "draining"
	case LoopClosed:
		return "closed"
	case LoopFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stream is one read operation: a finite, pull-based sequence of
// (Batch, Checkpoint) pairs. It owns its session, listener buffer, and
// accumulator exclusively; concurrent invocations never share them.
type Stream struct {
	cfg    Config
	sess   *Session
	lst    *listener
	dec    *Decoder
	trk    *Tracker
	acc    *accumulator
	failCh <-chan error

	state      atomic.Int32
	timer      *time.Timer
	idleRounds int

	quit     chan struct{}
	quitOnce sync.Once
	done     bool
	err      error
}

// Open starts a read operation: dial, subscribe, stream. The stream is
// not restartable once exhausted; continue with a fresh Open carrying
// the last checkpoint.
func Open(ctx context.Context, cfg Config, driver string, resume *Checkpoint) (*Stream, error) {
	applyDefaults(&cfg)

	dec, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		cfg:  cfg,
		dec:  dec,
		trk:  NewTracker(),
		acc:  newAccumulator(cfg.Batch.MaxSize, cfg.Batch.InactivityTimeout),
		quit: make(chan struct{}),
	}
	s.setState(LoopConnecting)

	sess, err := OpenSession(ctx, cfg, driver)
	if err != nil {
		s.setState(LoopFailed)
		return nil, err
	}
	s.sess = sess
	s.failCh = sess.client.Failures()

	s.lst = newListener(cfg.BufferCapacity)
	if err := s.lst.attach(sess, cfg.TopicFilter, cfg.QoS); err != nil {
		sess.Close()
		s.setState(LoopFailed)
		return nil, err
	}
	s.setState(LoopSubscribed)

	if resume != nil {
		s.trk.ResumeFrom(*resume)
	}

	s.timer = time.NewTimer(cfg.Batch.InactivityTimeout)
	s.setState(LoopStreaming)
	return s, nil
}

// Next blocks until a batch is ready, the stream ends, or ctx is done.
// It reports ErrEndOfStream when the inactivity window lapsed with no traffic, the
// context error when the caller cancelled, and anything else as a
// terminal failure. Batches preserve arrival order and never overlap.
func (s *Stream) Next(ctx context.Context) (Batch, Checkpoint, error) {
	if s.done {
		return Batch{}, Checkpoint{}, s.err
	}

	for {
		// records pending from a previous iteration may already be
		// batch-ready
		if s.acc.ready(time.Now()) {
			return s.emit()
		}

		select {
		case m := <-s.lst.messages():
			s.ingest(m)
			s.idleRounds = 0
			s.resetTimer()
			if s.acc.ready(time.Now()) {
				return s.emit()
			}

		case <-s.timer.C:
			// a fired timer and a buffered delivery can both be ready
			// in this select; an arrival means the window did not lapse
			if s.drainBuffered() > 0 {
				s.idleRounds = 0
				s.resetTimer()
				if s.acc.ready(time.Now()) {
					return s.emit()
				}
				continue
			}
			s.timer.Reset(s.cfg.Batch.InactivityTimeout)
			if s.acc.ready(time.Now()) {
				return s.emit()
			}
			s.idleRounds++
			if s.idleRounds >= s.cfg.Batch.IdleIntervals {
				return s.finish(nil)
			}

		case err := <-s.failCh:
			return s.fail(err)

		case <-s.quit:
			return s.finish(nil)

		case <-ctx.Done():
			return s.finish(ctx.Err())
		}
	}
}

// State reports the loop's current position; useful for probes and
// tests, never required for correct use.
func (s *Stream) State() LoopState { return LoopState(s.state.Load()) }

func (s *Stream) setState(st LoopState) { s.state.Store(int32(st)) }

// Close cancels the read operation. The session is torn down
// immediately; a blocked or subsequent Next call drains any partial
// batch and then reports the stream end. Safe to call more than once.
func (s *Stream) Close() {
	s.quitOnce.Do(func() {
		s.sess.Close()
		close(s.quit)
	})
}

func (s *Stream) ingest(m rawMessage) {
	rec, err := s.dec.Decode(m)
	if err != nil {
		telemetry.DecodeErrors.Inc()
		logging.L().Warn("stream: decode failed; keeping record with error marker", "topic", m.topic, "err", err)
		rec = errorRecord(m, err)
	}
	s.acc.accept(rec)
}

// drainBuffered moves deliveries already sitting in the listener buffer
// into the accumulator, stopping at the batch size cap.
func (s *Stream) drainBuffered() int {
	n := 0
	for s.acc.size() < s.cfg.Batch.MaxSize {
		select {
		case m := <-s.lst.messages():
			s.ingest(m)
			n++
		default:
			return n
		}
	}
	return n
}

func (s *Stream) emit() (Batch, Checkpoint, error) {
	s.setState(LoopDraining)
	b := s.acc.drain()
	cp := s.trk.Advance(b)
	telemetry.BatchesEmitted.Inc()
	telemetry.RecordsEmitted.Add(float64(len(b.Records)))
	s.setState(LoopStreaming)
	return b, cp, nil
}

// finish closes the stream gracefully: teardown first, then any
// partial batch is handed back before the follow-up call reports the
// stream end. A nil cause means the inactivity window lapsed with no traffic (or the
// caller invoked Close); a context error records a cancellation.
func (s *Stream) finish(cause error) (Batch, Checkpoint, error) {
	s.setState(LoopDraining)
	s.drainBuffered()
	s.teardown()
	s.done = true
	if cause == nil {
		cause = ErrEndOfStream
	}
	s.err = cause
	s.setState(LoopClosed)
	logging.L().Info("stream: closed", "cause", cause, "batches", s.trk.seq, "records", s.trk.records)

	if s.acc.size() > 0 {
		b := s.acc.drain()
		cp := s.trk.Advance(b)
		return b, cp, nil
	}
	return Batch{}, Checkpoint{}, s.err
}

func (s *Stream) fail(err error) (Batch, Checkpoint, error) {
	s.teardown()
	s.done = true
	s.err = err
	s.setState(LoopFailed)
	logging.L().Error("stream: transport failure", "err", err, "batches", s.trk.seq)
	return Batch{}, Checkpoint{}, err
}

func (s *Stream) teardown() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.sess.Close()
}

func (s *Stream) resetTimer() {
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
	s.timer.Reset(s.cfg.Batch.InactivityTimeout)
}

/*──────── connection probe ───────*/

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Probe is the outcome of TestConnection.
type Probe struct {
	Status string
	Detail string
}

// TestConnection opens a session, verifies it, and closes it, bounded
// by the configured connect timeout. It never hangs on an unreachable
// broker.
func TestConnection(ctx context.Context, cfg Config, driver string) Probe {
	applyDefaults(&cfg)
	sess, err := OpenSession(ctx, cfg, driver)
	if err != nil {
		return Probe{Status: StatusFailed, Detail: err.Error()}
	}
	defer sess.Close()
	if !sess.client.Connected() {
		return Probe{Status: StatusFailed, Detail: "broker dropped the connection during verification"}
	}
	return Probe{Status: StatusSucceeded}
}
