package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Runner executes a step list against one build state.
type Runner struct {
	Observer Observer
}

func (r *Runner) observer() Observer {
	if r.Observer == nil {
		return NoopObserver{}
	}
	return r.Observer
}

// Run executes the steps in declaration order. Adjacent steps that mutually
// declare each other in RunsWith form one concurrent group and are awaited
// together; everything else runs sequentially. The first failing step aborts
// the build: state records the error and the failing step, and no later step
// executes.
func (r *Runner) Run(ctx context.Context, st *State, steps []Step) error {
	st.Phase = PhaseRunning
	st.StartedAt = time.Now()
	defer func() { r.observer().OnBuildComplete(st) }()

	i := 0
	for i < len(steps) {
		group := []Step{steps[i]}
		j := i + 1
		for j < len(steps) && mutual(group, steps[j]) {
			group = append(group, steps[j])
			j++
		}
		i = j

		run := make([]Step, 0, len(group))
		for _, s := range group {
			if !s.shouldRun(st) {
				slog.Debug("Skipping step", logfields.Step(s.Name))
				continue
			}
			run = append(run, s)
		}
		if len(run) == 0 {
			continue
		}

		select {
		case <-ctx.Done():
			name := run[0].Name
			r.observer().OnStepComplete(name, 0, ResultCanceled)
			return st.fail(name, ctx.Err())
		default:
		}

		var err error
		if len(run) == 1 {
			err = r.runOne(ctx, st, run[0])
		} else {
			err = r.runGroup(ctx, st, run)
		}
		if err != nil {
			return err
		}
	}

	st.complete()
	slog.Info("Build completed",
		logfields.BuildID(st.BuildID.String()),
		logfields.DurationMS(float64(st.Duration().Milliseconds())))
	return nil
}

func (r *Runner) runOne(ctx context.Context, st *State, s Step) error {
	st.Current = s.Name
	slog.Info("Running step", logfields.Step(s.Name))
	r.observer().OnStepStart(s.Name)

	t0 := time.Now()
	out, err := s.Run(ctx, st)
	d := time.Since(t0)
	st.Timings[s.Name] = d
	r.observer().OnStepComplete(s.Name, d, resultOf(err))

	if err != nil {
		slog.Error("Step failed",
			logfields.Step(s.Name),
			logfields.Error(err),
			logfields.DurationMS(float64(d.Milliseconds())))
		return st.fail(s.Name, err)
	}
	slog.Debug("Step completed", logfields.Step(s.Name), logfields.DurationMS(float64(d.Milliseconds())))
	if err := st.Outputs.merge(out); err != nil {
		return st.fail(s.Name, err)
	}
	return nil
}

func (r *Runner) runGroup(ctx context.Context, st *State, run []Step) error {
	names := make([]string, len(run))
	for k, s := range run {
		names[k] = s.Name
	}
	st.Current = strings.Join(names, "+")
	slog.Info("Running steps concurrently", slog.Any("steps", names))

	outs := make([]*Outputs, len(run))
	durs := make([]time.Duration, len(run))
	errs := make([]error, len(run))

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for k, s := range run {
		p.Go(func(ctx context.Context) error {
			r.observer().OnStepStart(s.Name)
			t0 := time.Now()
			out, err := s.Run(ctx, st)
			durs[k] = time.Since(t0)
			outs[k] = out
			errs[k] = err
			r.observer().OnStepComplete(s.Name, durs[k], resultOf(err))
			return err
		})
	}
	_ = p.Wait()

	// Record timings and merge outputs in declaration order so the state is
	// deterministic regardless of completion order.
	for k, s := range run {
		st.Timings[s.Name] = durs[k]
	}
	// A failing member cancels its siblings; report the real failure, not
	// the cancellation it caused.
	for k, s := range run {
		if errs[k] != nil && resultOf(errs[k]) != ResultCanceled {
			slog.Error("Step failed", logfields.Step(s.Name), logfields.Error(errs[k]))
			return st.fail(s.Name, errs[k])
		}
	}
	for k, s := range run {
		if errs[k] != nil {
			return st.fail(s.Name, errs[k])
		}
	}
	for k, s := range run {
		if err := st.Outputs.merge(outs[k]); err != nil {
			return st.fail(s.Name, err)
		}
	}
	return nil
}

// mutual reports whether next and every current group member declare each
// other concurrent.
func mutual(group []Step, next Step) bool {
	if len(next.RunsWith) == 0 {
		return false
	}
	for _, m := range group {
		if !m.runsWith(next.Name) || !next.runsWith(m.Name) {
			return false
		}
	}
	return true
}

func resultOf(err error) Result {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultFailed
	}
}
