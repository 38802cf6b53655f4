package pipeline

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Result is the observed outcome of one step.
type Result string

const (
	ResultSuccess  Result = "success"
	ResultFailed   Result = "failed"
	ResultCanceled Result = "canceled"
)

// Observer receives callbacks around step execution and build lifecycle. It
// abstracts the metrics.Recorder so other observers (logging, notifications)
// can hook in without changing step code.
type Observer interface {
	OnStepStart(step string)
	OnStepComplete(step string, d time.Duration, result Result)
	OnBuildComplete(st *State)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStepStart(string)                           {}
func (NoopObserver) OnStepComplete(string, time.Duration, Result) {}
func (NoopObserver) OnBuildComplete(*State)                       {}

// RecorderObserver adapts metrics.Recorder into an Observer.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStepStart(string) {}

func (r RecorderObserver) OnStepComplete(step string, d time.Duration, result Result) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveStepDuration(step, d)
	r.Recorder.IncStepResult(step, metrics.ResultLabel(result))
}

func (r RecorderObserver) OnBuildComplete(st *State) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveBuildDuration(st.Duration())
	r.Recorder.IncBuildOutcome(string(st.Phase))
	r.Recorder.AddPagesBuilt(len(st.Outputs.PagesWritten))
}
