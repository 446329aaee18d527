// Package metrics provides internal metrics collection for the voice
// pipeline. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the pipeline's prometheus instruments. A nil *Collector
// is valid and records nothing, so tests and embedders can skip metrics
// entirely.
type Collector struct {
	turnsTotal       prometheus.Counter
	turnDuration     prometheus.Histogram
	stageFailures    *prometheus.CounterVec
	llmAttemptsTotal *prometheus.CounterVec
	historyLength    prometheus.Gauge
}

// NewCollector creates the pipeline instruments and registers them on the
// given registerer.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		turnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of voice turns handled",
		}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end voice turn duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Turn stage failures by stage",
		}, []string{"stage"}),
		llmAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_attempts_total",
			Help:      "LLM fallback-chain attempts by model and outcome",
		}, []string{"model", "outcome"}),
		historyLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_messages",
			Help:      "Messages currently held in the conversation history",
		}),
	}
	reg.MustRegister(c.turnsTotal, c.turnDuration, c.stageFailures, c.llmAttemptsTotal, c.historyLength)
	return c
}

// ObserveTurn records one completed turn.
func (c *Collector) ObserveTurn(d time.Duration) {
	if c == nil {
		return
	}
	c.turnsTotal.Inc()
	c.turnDuration.Observe(d.Seconds())
}

// StageFailure records a failed turn stage (stt, generate, tts).
func (c *Collector) StageFailure(stage string) {
	if c == nil {
		return
	}
	c.stageFailures.WithLabelValues(stage).Inc()
}

// LLMAttempt records one fallback-chain attempt.
func (c *Collector) LLMAttempt(model, outcome string) {
	if c == nil {
		return
	}
	c.llmAttemptsTotal.WithLabelValues(model, outcome).Inc()
}

// SetHistoryLength records the current conversation history size.
func (c *Collector) SetHistoryLength(n int) {
	if c == nil {
		return
	}
	c.historyLength.Set(float64(n))
}
