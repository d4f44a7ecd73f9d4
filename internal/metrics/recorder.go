// Package metrics provides Prometheus metrics for the matching engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pair outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// Recorder holds the engine collectors. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer

	pairs            *prometheus.CounterVec
	assessmentPaths  *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	matchScores      prometheus.Histogram
	batchDuration    prometheus.Histogram
	batchSize        prometheus.Gauge
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace of every metric.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem of every metric.
func WithSubsystem(subsystem string) Option {
	return func(r *Recorder) {
		if subsystem != "" {
			r.subsystem = subsystem
		}
	}
}

// NewRecorder registers the engine collectors on reg.
func NewRecorder(reg prometheus.Registerer, opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "talent_matcher",
		subsystem: "engine",
		registry:  reg,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(r.registry)

	r.pairs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "pairs_total",
		Help:      "Candidate/opportunity pairs processed by outcome",
	}, []string{"outcome"})

	r.assessmentPaths = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "assessments_total",
		Help:      "Match results by the path that produced them",
	}, []string{"source"})

	r.providerFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "provider_failures_total",
		Help:      "Failed calls to external providers",
	}, []string{"provider"})

	r.matchScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "match_score",
		Help:      "Distribution of match scores on the 0-100 scale",
		Buckets:   scoreBuckets,
	})

	r.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "batch_duration_seconds",
		Help:      "Wall time of batch runs",
		Buckets:   prometheus.DefBuckets,
	})

	r.batchSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "batch_pairs",
		Help:      "Number of pairs in the last batch",
	})

	return r
}

// RecordPair counts a finished pair.
func (r *Recorder) RecordPair(outcome string) {
	if r == nil {
		return
	}
	r.pairs.WithLabelValues(outcome).Inc()
}

// RecordResult counts the source of a result and observes its score.
func (r *Recorder) RecordResult(source string, score float64) {
	if r == nil {
		return
	}
	r.assessmentPaths.WithLabelValues(source).Inc()
	r.matchScores.Observe(score)
}

// RecordProviderFailure counts a failed provider call.
func (r *Recorder) RecordProviderFailure(provider string) {
	if r == nil {
		return
	}
	r.providerFailures.WithLabelValues(provider).Inc()
}

// ObserveBatch records the size and duration of a batch.
func (r *Recorder) ObserveBatch(pairs int, d time.Duration) {
	if r == nil {
		return
	}
	r.batchSize.Set(float64(pairs))
	r.batchDuration.Observe(d.Seconds())
}
