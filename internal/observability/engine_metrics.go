package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineCollector exposes evaluation-engine Prometheus metrics.
type EngineCollector struct {
	CurveEvalDuration prometheus.Histogram
	WorkersInUse      prometheus.Gauge
	ScenarioBuilds    prometheus.Counter
}

// NewEngineCollector registers engine metrics against the provided registerer.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	evalHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_curve_eval_duration_seconds",
		Help:    "Duration of batch light-curve evaluations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	evalHistogram, err := registerHistogram(reg, evalHistogram, "engine_curve_eval_duration_seconds")
	if err != nil {
		return nil, err
	}

	workersGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_workers_in_use",
		Help: "Number of worker goroutines used by the last batch evaluation.",
	})
	workersGauge, err = registerGauge(reg, workersGauge, "engine_workers_in_use")
	if err != nil {
		return nil, err
	}

	builds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_scenario_builds_total",
		Help: "Cumulative number of scenarios resolved into evaluable engines.",
	})
	builds, err = registerCounter(reg, builds, "engine_scenario_builds_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		CurveEvalDuration: evalHistogram,
		WorkersInUse:      workersGauge,
		ScenarioBuilds:    builds,
	}, nil
}

// ObserveCurveEval records one batch evaluation duration.
func (c *EngineCollector) ObserveCurveEval(d time.Duration) {
	if c == nil || c.CurveEvalDuration == nil {
		return
	}
	c.CurveEvalDuration.Observe(d.Seconds())
}

// SetWorkersInUse updates the worker gauge.
func (c *EngineCollector) SetWorkersInUse(count int) {
	if c == nil || c.WorkersInUse == nil {
		return
	}
	c.WorkersInUse.Set(float64(count))
}

// IncScenarioBuilds increments the scenario build counter.
func (c *EngineCollector) IncScenarioBuilds() {
	if c == nil || c.ScenarioBuilds == nil {
		return
	}
	c.ScenarioBuilds.Inc()
}
