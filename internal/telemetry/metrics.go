package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siphon"

var (
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_received_total",
		Help:      "Messages accepted from the broker into the listener buffer.",
	})
	MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_dropped_total",
		Help:      "Messages dropped because the listener buffer was full.",
	})
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Payloads that failed to decode and were emitted with an error marker.",
	})
	BatchesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_emitted_total",
		Help:      "Batches handed to the caller.",
	})
	RecordsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_emitted_total",
		Help:      "Records across all emitted batches.",
	})
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconnects_total",
		Help:      "Broker connection losses followed by a driver re-dial.",
	})
)

func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
