package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/temirov/clarify-verify/internal/llm"
	"github.com/temirov/clarify-verify/internal/orchestrator"
	"github.com/temirov/clarify-verify/internal/pipeline"
)

const namespace = "clarify_verify"

// Metrics collects run, oracle and backend metrics on a private registry.
// All methods are safe for concurrent use by batch workers.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runIterations   prometheus.Histogram
	transitions     *prometheus.CounterVec
	oracleTotal     *prometheus.CounterVec
	oracleDuration  *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	backendDuration prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by final status.",
		}, []string{"status"}),
		runIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Verification iterations used per run.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Orchestrator state transitions.",
		}, []string{"from", "to"}),
		oracleTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_outcomes_total",
			Help:      "Oracle outcomes by oracle and verdict.",
		}, []string{"oracle", "passed"}),
		oracleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_duration_seconds",
			Help:      "Oracle wall time.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"oracle"}),
		backendCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Completion backend calls by outcome.",
		}, []string{"outcome"}),
		backendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Completion backend latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

// Registry exposes the underlying registry for exporters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Transition(from orchestrator.State, to orchestrator.State) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) Finished(result pipeline.PipelineResult) {
	m.runsTotal.WithLabelValues(string(result.FinalStatus)).Inc()
	m.runIterations.Observe(float64(result.Iterations))
}

// ObserveOutcome matches verify.OutcomeObserver.
func (m *Metrics) ObserveOutcome(outcome pipeline.VerificationOutcome) {
	m.oracleTotal.WithLabelValues(outcome.Oracle, strconv.FormatBool(outcome.Passed)).Inc()
	m.oracleDuration.WithLabelValues(outcome.Oracle).Observe(float64(outcome.DurationMs) / 1000)
}

// ObserveBackendCall matches llm.Observer. Failures that carry an HTTP status
// are labelled with it.
func (m *Metrics) ObserveBackendCall(duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if status := llm.StatusCode(err); status != 0 {
			outcome = "http_" + strconv.Itoa(status)
		}
	}
	m.backendCalls.WithLabelValues(outcome).Inc()
	m.backendDuration.Observe(duration.Seconds())
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

var _ orchestrator.Observer = (*Metrics)(nil)
