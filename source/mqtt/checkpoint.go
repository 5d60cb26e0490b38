package mqtt

// Tracker derives strictly increasing checkpoints from emitted batches.
// It belongs to a single stream; only the ingestion loop touches it.
type Tracker struct {
	seq     uint64
	records uint64
	last    Checkpoint
}

func NewTracker() *Tracker { return &Tracker{} }

// ResumeFrom seeds the tracker with a checkpoint from a previous run.
// It never moves backwards, and it does not touch the subscription:
// MQTT has no position-based replay, so resumption only restores the
// caller-visible counters.
func (t *Tracker) ResumeFrom(cp Checkpoint) {
	if cp.Seq > t.seq {
		t.seq = cp.Seq
		t.records = cp.Records
		t.last = cp
	}
}

// Advance covers one emitted batch and returns the new checkpoint.
func (t *Tracker) Advance(b Batch) Checkpoint {
	t.seq++
	t.records += uint64(len(b.Records))

	cp := Checkpoint{Seq: t.seq, Records: t.records, LastArrival: t.last.LastArrival}
	if _, last := b.Span(); last.After(cp.LastArrival) {
		cp.LastArrival = last
	}
	t.last = cp
	return cp
}

// Last returns the most recent checkpoint handed out.
func (t *Tracker) Last() Checkpoint { return t.last }
