package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptedProbe returns each verdict in sequence, then false forever.
func scriptedProbe(script ...bool) (Probe, *int) {
	calls := 0
	probe := func(ctx context.Context) bool {
		defer func() { calls++ }()
		if calls < len(script) {
			return script[calls]
		}
		return false
	}
	return probe, &calls
}

// =============================================================================
// Gate Verdict Tests
// =============================================================================

func TestGateAwait_PassesAtThreshold(t *testing.T) {
	gate := Gate{Attempts: 5, Interval: 0, Threshold: 2}
	probe, calls := scriptedProbe(true, true)

	verdict := gate.Await(context.Background(), probe)

	assert.Equal(t, VerdictPass, verdict)
	assert.Equal(t, 2, *calls, "gate must stop probing once the threshold is met")
}

func TestGateAwait_FlapResetsStreak(t *testing.T) {
	// pass, fail, pass, pass: only the last two count toward threshold 2.
	gate := Gate{Attempts: 5, Interval: 0, Threshold: 2}
	probe, calls := scriptedProbe(true, false, true, true)

	verdict := gate.Await(context.Background(), probe)

	assert.Equal(t, VerdictPass, verdict)
	assert.Equal(t, 4, *calls)
}

func TestGateAwait_BudgetExhausted(t *testing.T) {
	gate := Gate{Attempts: 3, Interval: 0, Threshold: 2}
	probe, calls := scriptedProbe(false, false, false)

	verdict := gate.Await(context.Background(), probe)

	assert.Equal(t, VerdictFail, verdict)
	assert.Equal(t, 3, *calls, "gate must probe exactly Attempts times before failing")
}

func TestGateAwait_SingleSuccessNotEnough(t *testing.T) {
	gate := Gate{Attempts: 4, Interval: 0, Threshold: 2}
	probe, _ := scriptedProbe(true, false, true, false)

	verdict := gate.Await(context.Background(), probe)

	assert.Equal(t, VerdictFail, verdict)
}

func TestGateAwait_ThresholdLargerThanAttempts(t *testing.T) {
	gate := Gate{Attempts: 2, Interval: 0, Threshold: 5}
	probe, _ := scriptedProbe(true, true)

	verdict := gate.Await(context.Background(), probe)

	assert.Equal(t, VerdictFail, verdict, "threshold can never be met inside the budget")
}

func TestGateAwait_ZeroValuesClampToOne(t *testing.T) {
	gate := Gate{}
	probe, calls := scriptedProbe(true)

	verdict := gate.Await(context.Background(), probe)

	assert.Equal(t, VerdictPass, verdict)
	assert.Equal(t, 1, *calls)
}

// =============================================================================
// Cancellation Tests
// =============================================================================

func TestGateAwait_CancelledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gate := Gate{Attempts: 10, Interval: 0, Threshold: 1}
	probe, calls := scriptedProbe(true)

	verdict := gate.Await(ctx, probe)

	assert.Equal(t, VerdictFail, verdict)
	assert.Equal(t, 0, *calls, "a dead context must not reach the probe")
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "pass", VerdictPass.String())
	assert.Equal(t, "fail", VerdictFail.String())
}
