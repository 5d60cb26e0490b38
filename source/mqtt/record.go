package mqtt

import "time"

// Well-known record field names produced by the decoder.
const (
	FieldPayload = "payload" // raw-bytes format
	FieldText    = "text"    // text format
	FieldValue   = "value"   // json format, non-object documents
	FieldError   = "_error"  // decode failure marker
	FieldRaw     = "_raw"    // original payload of a failed decode
)

// rawMessage is one inbound publish exactly as the broker delivered it.
// It lives only between the listener callback and the decoder.
type rawMessage struct {
	topic     string
	payload   []byte
	arrival   time.Time
	duplicate bool
}

// Record is one decoded message: a key/value view of the payload tagged
// with its source topic and arrival time.
type Record struct {
	Topic     string
	Arrival   time.Time
	Duplicate bool
	Fields    map[string]any
}

// Failed reports whether this record carries a decode-error marker
// instead of a decoded payload.
func (r Record) Failed() bool {
	_, ok := r.Fields[FieldError]
	return ok
}

// Batch is an ordered run of records handed to the caller as one unit.
// Ownership transfers on emission.
type Batch struct {
	Records []Record
}

func (b Batch) Count() int { return len(b.Records) }

// Span returns the arrival times of the first and last record.
func (b Batch) Span() (first, last time.Time) {
	if len(b.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return b.Records[0].Arrival, b.Records[len(b.Records)-1].Arrival
}

// Checkpoint marks how far a stream has been consumed. Seq increases by
// one per emitted batch; Records counts every record covered so far.
//
// MQTT sessions cannot replay from a position, so a resumed stream may
// re-receive messages the broker redelivers at-least-once even when they
// are already covered by the checkpoint. Deduplication is left to the
// consumer.
type Checkpoint struct {
	Seq         uint64    `json:"seq"`
	Records     uint64    `json:"records"`
	LastArrival time.Time `json:"last_arrival"`
}

// Before reports whether c covers a strictly earlier position than o.
func (c Checkpoint) Before(o Checkpoint) bool { return c.Seq < o.Seq }
