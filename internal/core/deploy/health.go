package deploy

import (
	"context"
	"time"
)

// =============================================================================
// Health Gating
// =============================================================================

// Verdict is the outcome of gating a candidate container before cutover.
type Verdict int

const (
	VerdictFail Verdict = iota
	VerdictPass
)

func (v Verdict) String() string {
	if v == VerdictPass {
		return "pass"
	}
	return "fail"
}

// Gate bounds the health-check loop: Attempts probes at most, Interval apart,
// requiring Threshold consecutive successes to pass. This is the only place
// in a run with a retry budget, and it never blocks past
// Attempts × Interval.
type Gate struct {
	Attempts  int
	Interval  time.Duration
	Threshold int
}

// Probe reports whether the candidate looked healthy on one attempt.
type Probe func(ctx context.Context) bool

// Await runs the gate against probe. A single successful probe is not enough:
// the consecutive-success threshold rejects flapping candidates, and any
// failed probe resets the streak. Exhausting the attempt budget, or ctx
// ending, is a fail verdict.
func (g Gate) Await(ctx context.Context, probe Probe) Verdict {
	attempts := g.Attempts
	if attempts < 1 {
		attempts = 1
	}
	threshold := g.Threshold
	if threshold < 1 {
		threshold = 1
	}

	streak := 0
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && g.Interval > 0 {
			select {
			case <-ctx.Done():
				return VerdictFail
			case <-time.After(g.Interval):
			}
		}
		if ctx.Err() != nil {
			return VerdictFail
		}

		if probe(ctx) {
			streak++
			if streak >= threshold {
				return VerdictPass
			}
		} else {
			streak = 0
		}
	}
	return VerdictFail
}
