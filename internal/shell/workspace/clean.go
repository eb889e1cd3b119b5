// Package workspace checks the operator's working tree before a run.
// Deploying from a dirty tree would bake uncommitted changes into a release
// image whose tag suggests otherwise.
package workspace

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Checker inspects the local git workspace.
type Checker struct {
	// Dir is the repository root to inspect, "" for the current directory.
	Dir string
}

// Status describes the workspace state.
type Status struct {
	Clean bool
	// Dirty lists the porcelain status lines when the tree is not clean,
	// for the remediation message.
	Dirty []string
}

// Check runs `git status --porcelain`. A directory that is not a git
// repository at all is reported as an error, not as clean.
func (c *Checker) Check(ctx context.Context) (Status, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}

	out, err := cmd.Output()
	if err != nil {
		return Status{}, fmt.Errorf("git status: %w", err)
	}

	var dirty []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			dirty = append(dirty, line)
		}
	}
	return Status{Clean: len(dirty) == 0, Dirty: dirty}, nil
}
