package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	stepDuration      *prom.HistogramVec
	buildDuration     prom.Histogram
	stepResults       *prom.CounterVec
	buildOutcome      *prom.CounterVec
	renderDuration    *prom.HistogramVec
	renderConcurrency prom.Gauge
	pagesBuilt        prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent per recorder instance).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual build steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "render_duration_seconds",
			Help:      "Duration of individual document pre-renders",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.renderConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "render_concurrency",
			Help:      "Worker cap used by the pre-render pool",
		})
		pr.pagesBuilt = prom.NewCounter(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "pages_built_total",
			Help:      "HTML pages written across all builds",
		})
		reg.MustRegister(pr.stepDuration, pr.buildDuration, pr.stepResults,
			pr.buildOutcome, pr.renderDuration, pr.renderConcurrency, pr.pagesBuilt)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil || p.stepResults == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration, success bool) {
	if p == nil || p.renderDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.renderDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetRenderConcurrency(n int) {
	if p == nil || p.renderConcurrency == nil {
		return
	}
	p.renderConcurrency.Set(float64(n))
}

func (p *PrometheusRecorder) AddPagesBuilt(n int) {
	if p == nil || p.pagesBuilt == nil {
		return
	}
	p.pagesBuilt.Add(float64(n))
}
