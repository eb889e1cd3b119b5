package deploy

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// Phase Results
// =============================================================================

// Outcome classifies what a phase produced.
type Outcome int

const (
	// OutcomeOK: the phase completed with nothing to report.
	OutcomeOK Outcome = iota
	// OutcomeScoped: one or more (entry, server) pairs failed but the run
	// continued; the failures are carried in the result.
	OutcomeScoped
	// OutcomeFatal: the run must stop. Fatal failures only occur before
	// any server mutation or as preconditions.
	OutcomeFatal
)

// ScopedFailure records one (entry, server) failure that did not abort the
// run.
type ScopedFailure struct {
	Target string
	Server string
	State  State
	Err    error
}

func (f ScopedFailure) String() string {
	if f.Server == "" {
		return fmt.Sprintf("%s: %v", f.Target, f.Err)
	}
	return fmt.Sprintf("%s on %s (%s): %v", f.Target, f.Server, f.State, f.Err)
}

// Result is the explicit outcome of a phase: ok, fatal, or a set of scoped
// failures. It replaces thrown-error control flow with a value threaded
// through the pipeline runner.
type Result struct {
	Outcome Outcome
	Err     error
	Scoped  []ScopedFailure
}

// OK is the empty successful result.
func OK() Result {
	return Result{Outcome: OutcomeOK}
}

// Fatal wraps an error that must stop the run.
func Fatal(err error) Result {
	return Result{Outcome: OutcomeFatal, Err: err}
}

// Failures builds a result from accumulated scoped failures. An empty slice
// is OK.
func Failures(scoped []ScopedFailure) Result {
	if len(scoped) == 0 {
		return OK()
	}
	return Result{Outcome: OutcomeScoped, Scoped: scoped}
}

// =============================================================================
// Pipeline Runner
// =============================================================================

// Phase couples a name with the work it performs.
type Phase struct {
	Name string
	Run  func(ctx context.Context) Result
}

// PhaseReport records how one phase ended.
type PhaseReport struct {
	Name     string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// PipelineSummary aggregates a full pipeline execution.
type PipelineSummary struct {
	Phases []PhaseReport
	Scoped []ScopedFailure
	// FatalErr is the error that short-circuited the pipeline, nil if none.
	FatalErr error
}

// Clean reports whether the run ended with neither fatal nor scoped failures.
func (s PipelineSummary) Clean() bool {
	return s.FatalErr == nil && len(s.Scoped) == 0
}

// RunPipeline executes phases in order. A fatal result short-circuits the
// remaining phases; scoped failures accumulate and the pipeline continues.
func RunPipeline(ctx context.Context, phases []Phase) PipelineSummary {
	var summary PipelineSummary
	for _, phase := range phases {
		start := time.Now()
		res := phase.Run(ctx)
		summary.Phases = append(summary.Phases, PhaseReport{
			Name:     phase.Name,
			Outcome:  res.Outcome,
			Err:      res.Err,
			Duration: time.Since(start),
		})
		summary.Scoped = append(summary.Scoped, res.Scoped...)
		if res.Outcome == OutcomeFatal {
			summary.FatalErr = res.Err
			return summary
		}
	}
	return summary
}
