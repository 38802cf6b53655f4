package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for build and step metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be cheap and safe to call from concurrent steps.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStepResult(step string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: completed|failed
	ObserveRenderDuration(d time.Duration, success bool)
	SetRenderConcurrency(n int)
	AddPagesBuilt(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) IncStepResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                    {}
func (NoopRecorder) ObserveRenderDuration(time.Duration, bool) {}
func (NoopRecorder) SetRenderConcurrency(int)                  {}
func (NoopRecorder) AddPagesBuilt(int)                         {}
