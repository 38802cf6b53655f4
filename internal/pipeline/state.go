// Package pipeline runs the ordered build steps. Steps declare what they
// produce through a typed outputs value and may declare which neighbors they
// can run concurrently with; the runner builds the execution groups and
// stops the build on the first failure.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/pages"
)

// Phase is the lifecycle position of one build.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// ErrOutputConflict reports two steps producing the same output field. Each
// field has exactly one producing step; a conflict is a programming error in
// the step list, not a user problem.
var ErrOutputConflict = errors.New("pipeline output produced twice")

// Outputs is the typed bag of step products. A step returns a partial value
// holding only the fields it produces; the runner merges partials into the
// state in step order.
type Outputs struct {
	// Entries holds the discovered documents, keyed by entry name.
	Entries map[string]pages.Entry
	// ClientEntries maps entry name to its generated client bootstrap module.
	ClientEntries map[string]string
	// ServerEntries maps entry name to its generated server bootstrap module.
	ServerEntries map[string]string
	// Stylesheet is the output-relative path of the hashed CSS file.
	Stylesheet string
	// ClientAssets maps entry name to the output-relative hashed JS path.
	ClientAssets map[string]string
	// ServerModules maps entry name to the built server module on disk.
	ServerModules map[string]string
	// Rendered maps entry name to its pre-rendered HTML body.
	Rendered map[string]string
	// PagesWritten lists the output-relative HTML files the build wrote.
	PagesWritten []string
	// StaticCopied counts files copied from the static directories.
	StaticCopied int
}

// merge folds a step's partial outputs into the accumulated state.
func (o *Outputs) merge(p *Outputs) error {
	if p == nil {
		return nil
	}
	if p.Entries != nil {
		if o.Entries != nil {
			return fmt.Errorf("%w: entries", ErrOutputConflict)
		}
		o.Entries = p.Entries
	}
	if p.ClientEntries != nil {
		if o.ClientEntries != nil {
			return fmt.Errorf("%w: client entries", ErrOutputConflict)
		}
		o.ClientEntries = p.ClientEntries
	}
	if p.ServerEntries != nil {
		if o.ServerEntries != nil {
			return fmt.Errorf("%w: server entries", ErrOutputConflict)
		}
		o.ServerEntries = p.ServerEntries
	}
	if p.Stylesheet != "" {
		if o.Stylesheet != "" {
			return fmt.Errorf("%w: stylesheet", ErrOutputConflict)
		}
		o.Stylesheet = p.Stylesheet
	}
	if p.ClientAssets != nil {
		if o.ClientAssets != nil {
			return fmt.Errorf("%w: client assets", ErrOutputConflict)
		}
		o.ClientAssets = p.ClientAssets
	}
	if p.ServerModules != nil {
		if o.ServerModules != nil {
			return fmt.Errorf("%w: server modules", ErrOutputConflict)
		}
		o.ServerModules = p.ServerModules
	}
	if p.Rendered != nil {
		if o.Rendered != nil {
			return fmt.Errorf("%w: rendered", ErrOutputConflict)
		}
		o.Rendered = p.Rendered
	}
	if p.PagesWritten != nil {
		if o.PagesWritten != nil {
			return fmt.Errorf("%w: pages written", ErrOutputConflict)
		}
		o.PagesWritten = p.PagesWritten
	}
	o.StaticCopied += p.StaticCopied
	return nil
}

// State is the mutable record of one build. Created fresh per build and
// mutated only by the runner loop; steps read it and return their outputs.
type State struct {
	BuildID    uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Phase      Phase
	// Current is the step (or concurrent step group) executing right now.
	Current string
	Options config.BuildOptions
	Outputs Outputs
	// Timings records wall time per executed step. Skipped steps get no
	// entry.
	Timings map[string]time.Duration
	// Err and FailedStep are set when Phase is PhaseFailed.
	Err        error
	FailedStep string
}

// NewState returns a fresh state for one build.
func NewState(opts config.BuildOptions) *State {
	return &State{
		BuildID: uuid.New(),
		Phase:   PhaseNotStarted,
		Options: opts,
		Timings: make(map[string]time.Duration),
	}
}

// Duration is the total build wall time, zero until the build finishes.
func (s *State) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *State) fail(step string, err error) error {
	s.Phase = PhaseFailed
	s.FinishedAt = time.Now()
	s.FailedStep = step
	s.Err = fmt.Errorf("step %s: %w", step, err)
	return s.Err
}

func (s *State) complete() {
	s.Phase = PhaseCompleted
	s.FinishedAt = time.Now()
	s.Current = ""
}
