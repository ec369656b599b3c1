// Package metrics exposes the rules engine's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-rules/internal/automation"
	"github.com/nerrad567/gray-logic-rules/internal/rest"
)

// Collectors records poller and scheduler activity. It implements
// rest.Observer and automation.Metrics.
type Collectors struct {
	restFetches     *prometheus.CounterVec
	restDuration    *prometheus.HistogramVec
	triggers        *prometheus.CounterVec
	state           *prometheus.GaugeVec
	conditionErrors *prometheus.CounterVec
	computeErrors   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		restFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rules_rest_fetch_total",
			Help: "REST source polls by result (ok or error).",
		}, []string{"source", "result"}),
		restDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rules_rest_fetch_duration_seconds",
			Help:    "Time to fetch and map one REST source.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"source"}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rules_automation_triggers_total",
			Help: "Automation runs started because the condition held.",
		}, []string{"automation"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rules_automation_state",
			Help: "Current automation state: 0 idle, 1 running, 2 exited success, 3 exited failure.",
		}, []string{"automation"}),
		conditionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rules_condition_errors_total",
			Help: "Condition evaluations that failed and were read as not triggered.",
		}, []string{"automation"}),
		computeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rules_compute_errors_total",
			Help: "Compute steps and action expressions that failed to evaluate.",
		}, []string{"automation"}),
	}

	for _, col := range []prometheus.Collector{
		c.restFetches, c.restDuration, c.triggers, c.state, c.conditionErrors, c.computeErrors,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// PollSucceeded implements rest.Observer.
func (c *Collectors) PollSucceeded(source string, _ map[string]any, elapsed time.Duration) {
	c.restFetches.WithLabelValues(source, "ok").Inc()
	c.restDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// PollFailed implements rest.Observer.
func (c *Collectors) PollFailed(source string, _ error, elapsed time.Duration) {
	c.restFetches.WithLabelValues(source, "error").Inc()
	c.restDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// AutomationTriggered implements automation.Metrics.
func (c *Collectors) AutomationTriggered(name string) {
	c.triggers.WithLabelValues(name).Inc()
}

// AutomationStateChanged implements automation.Metrics.
func (c *Collectors) AutomationStateChanged(name string, s automation.State) {
	c.state.WithLabelValues(name).Set(float64(s))
}

// ConditionFailed implements automation.Metrics.
func (c *Collectors) ConditionFailed(name string) {
	c.conditionErrors.WithLabelValues(name).Inc()
}

// ComputeFailed implements automation.Metrics.
func (c *Collectors) ComputeFailed(name string) {
	c.computeErrors.WithLabelValues(name).Inc()
}

var (
	_ rest.Observer      = (*Collectors)(nil)
	_ automation.Metrics = (*Collectors)(nil)
)
