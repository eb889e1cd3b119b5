package deploy

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	coredeploy "github.com/drydock-sh/drydock/internal/core/deploy"
)

func TestRunReport_Clean(t *testing.T) {
	report := &RunReport{
		Outcomes: []ServerOutcome{
			{Target: "web", Server: "s1", State: coredeploy.StateDone},
		},
	}
	assert.True(t, report.Clean())

	report.Outcomes = append(report.Outcomes,
		ServerOutcome{Target: "web", Server: "s2", State: coredeploy.StateFailed})
	assert.False(t, report.Clean())
}

func TestRunReport_CleanFatal(t *testing.T) {
	report := &RunReport{
		Summary: coredeploy.PipelineSummary{FatalErr: errors.New("boom")},
	}
	assert.False(t, report.Clean())
}

func TestRunReport_URLsSkipFailedServers(t *testing.T) {
	report := &RunReport{
		Outcomes: []ServerOutcome{
			{Target: "web", Server: "s1", State: coredeploy.StateDone, URLs: []string{"https://www.acme.com"}},
			{Target: "web", Server: "s2", State: coredeploy.StateFailed},
		},
	}
	assert.Equal(t, []string{"https://www.acme.com"}, report.URLs())
}

func TestRunReport_WriteSummary(t *testing.T) {
	report := &RunReport{
		ReleaseID: testReleaseID,
		Project:   "acme",
		Outcomes: []ServerOutcome{
			{
				Kind: coredeploy.KindApp, Target: "web", Server: "s1",
				State: coredeploy.StateDone, Duration: 1200 * time.Millisecond,
				URLs: []string{"https://www.acme.com"},
			},
			{
				Kind: coredeploy.KindApp, Target: "web", Server: "s2",
				State: coredeploy.StateFailed,
				Err:   errors.New("health-checking: no healthy streak"),
				Warnings: []string{"secret API_KEY unresolved"},
			},
		},
	}

	var buf bytes.Buffer
	report.WriteSummary(&buf)
	out := buf.String()

	assert.Contains(t, out, "Release 20260831142501-9f3c2a1b (acme)")
	assert.Contains(t, out, "web @ s1")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "error: health-checking: no healthy streak")
	assert.Contains(t, out, "warning: secret API_KEY unresolved")
	assert.Contains(t, out, "Reachable:")
	assert.Contains(t, out, "https://www.acme.com")
}
