package mqtt

import (
	"sync"
	"time"
)

// accumulator buffers decoded records until a batch-ready condition
// fires: size cap reached, or the inactivity gap elapsed with records
// pending. The ingestion loop's timeout check and the producer path
// race on it, hence the mutex; everything else in the flow is single
// directional and lock-free.
type accumulator struct {
	mu sync.Mutex

	maxSize int
	idle    time.Duration

	records    []Record
	lastAccept time.Time
}

func newAccumulator(maxSize int, idle time.Duration) *accumulator {
	return &accumulator{maxSize: maxSize, idle: idle}
}

func (a *accumulator) accept(r Record) {
	a.mu.Lock()
	a.records = append(a.records, r)
	a.lastAccept = time.Now()
	a.mu.Unlock()
}

func (a *accumulator) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

func (a *accumulator) ready(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.records) == 0 {
		return false
	}
	if len(a.records) >= a.maxSize {
		return true
	}
	return now.Sub(a.lastAccept) >= a.idle
}

// drain atomically removes and returns everything buffered, resetting
// the accumulator for the next batch.
func (a *accumulator) drain() Batch {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := Batch{Records: a.records}
	a.records = nil
	a.lastAccept = time.Time{}
	return b
}
