package deploy

import (
	"fmt"
	"io"
	"time"

	coredeploy "github.com/drydock-sh/drydock/internal/core/deploy"
	"github.com/drydock-sh/drydock/internal/core/release"
)

// =============================================================================
// Run Report
// =============================================================================

// ServerOutcome records how one (entry, server) pair ended.
type ServerOutcome struct {
	Kind     coredeploy.TargetKind
	Target   string
	Server   string
	State    coredeploy.State
	Err      error
	Duration time.Duration
	// URLs are the externally reachable addresses configured for this
	// server, present only when cutover and proxy configuration succeeded.
	URLs []string
	// Warnings carry non-fatal anomalies: failed decommissions, failed
	// prunes, skipped proxy hostnames, unresolved secret references.
	Warnings []string
}

// Failed reports whether the pair ended in the absorbing failure state.
func (o ServerOutcome) Failed() bool {
	return o.State == coredeploy.StateFailed
}

// RunReport aggregates everything a run produced, for the summary and the
// process exit status.
type RunReport struct {
	ReleaseID release.ID
	Project   string
	StartedAt time.Time
	Summary   coredeploy.PipelineSummary
	Outcomes  []ServerOutcome
}

// Clean reports whether the process may exit zero: no fatal error and no
// failed (entry, server) pair.
func (r *RunReport) Clean() bool {
	if !r.Summary.Clean() {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Failed() {
			return false
		}
	}
	return true
}

// URLs returns the addresses of all successfully proxied apps, in outcome
// order. Failed servers contribute nothing even when the same app succeeded
// elsewhere.
func (r *RunReport) URLs() []string {
	var urls []string
	for _, o := range r.Outcomes {
		urls = append(urls, o.URLs...)
	}
	return urls
}

// =============================================================================
// Summary Output
// =============================================================================

// WriteSummary renders the human-readable end-of-run summary: per-target
// timing and pass/fail, aggregated failures, and finally the reachable URLs.
func (r *RunReport) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\nRelease %s (%s)\n", r.ReleaseID, r.Project)

	for _, o := range r.Outcomes {
		status := "ok"
		if o.Failed() {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  %-7s %s @ %s  %-6s %s\n",
			o.Kind, o.Target, o.Server, status, o.Duration.Round(time.Millisecond))
		if o.Err != nil {
			fmt.Fprintf(w, "          error: %v\n", o.Err)
		}
		for _, warn := range o.Warnings {
			fmt.Fprintf(w, "          warning: %s\n", warn)
		}
	}

	if r.Summary.FatalErr != nil {
		fmt.Fprintf(w, "\nrun aborted: %v\n", r.Summary.FatalErr)
	}

	if urls := r.URLs(); len(urls) > 0 {
		fmt.Fprintf(w, "\nReachable:\n")
		for _, url := range urls {
			fmt.Fprintf(w, "  %s\n", url)
		}
	}
}
