package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Claim outcomes.
const (
	ClaimGranted  = "granted"
	ClaimConflict = "conflict"
	ClaimError    = "error"
)

// Recorder counts booking engine activity. A nil *Recorder records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	claims       *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	availability prometheus.Histogram
	commitErrors prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "claims_total",
			Help:      "Slot claim attempts by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "status_transitions_total",
			Help:      "Committed booking status transitions.",
		}, []string{"from", "to"}),
		availability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Name:      "availability_query_seconds",
			Help:      "Latency of availability queries.",
			Buckets:   prometheus.DefBuckets,
		}),
		commitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "commit_errors_total",
			Help:      "Booking decisions that failed to commit.",
		}),
	}
	r.registry.MustRegister(
		r.claims,
		r.transitions,
		r.availability,
		r.commitErrors,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Claim(outcome string) {
	if r == nil {
		return
	}
	r.claims.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Transition(from, to string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(from, to).Inc()
}

func (r *Recorder) AvailabilityQuery(took time.Duration) {
	if r == nil {
		return
	}
	r.availability.Observe(took.Seconds())
}

func (r *Recorder) CommitError() {
	if r == nil {
		return
	}
	r.commitErrors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
