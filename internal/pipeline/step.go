package pipeline

import "context"

// Step is one unit of the build.
type Step struct {
	// Name identifies the step in logs, timings and failure reports.
	Name string
	// ShouldRun gates the step against the current state. Nil means always
	// run. A skipped step records no timing and triggers no phase change.
	ShouldRun func(st *State) bool
	// RunsWith names steps this one may execute concurrently with. The
	// runner only groups adjacent steps whose declarations are mutual, so a
	// stray name on one side never creates accidental concurrency.
	RunsWith []string
	// Run does the work and returns the outputs the step produced. It must
	// not write st.Outputs directly; concurrent group members share st.
	Run func(ctx context.Context, st *State) (*Outputs, error)
}

func (s Step) runsWith(name string) bool {
	for _, n := range s.RunsWith {
		if n == name {
			return true
		}
	}
	return false
}

func (s Step) shouldRun(st *State) bool {
	return s.ShouldRun == nil || s.ShouldRun(st)
}
