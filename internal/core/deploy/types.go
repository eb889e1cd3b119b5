// Package deploy holds the pure deployment domain: target resolution, release
// naming, the blue-green state machine vocabulary, health gating, and the
// phase-result pipeline. Nothing in this package touches a remote host.
package deploy

import (
	"fmt"

	"github.com/drydock-sh/drydock/internal/core/config"
	"github.com/drydock-sh/drydock/internal/core/release"
)

// =============================================================================
// Target Variant
// =============================================================================

// TargetKind discriminates the two deployable entry variants.
type TargetKind int

const (
	// KindApp is a released entry deployed blue-green behind the proxy.
	KindApp TargetKind = iota
	// KindService is a non-released entry replaced in place.
	KindService
)

// String returns the kind's name for logs and summaries.
func (k TargetKind) String() string {
	switch k {
	case KindApp:
		return "app"
	case KindService:
		return "service"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target is a tagged variant over the two entry kinds. Exactly one of App and
// Service is set, matching Kind. Each variant carries only the fields valid
// for it: services have no build spec, no proxy spec, and no release suffix.
type Target struct {
	Kind    TargetKind
	App     *config.App
	Service *config.Service
}

// Name returns the entry name regardless of variant.
func (t Target) Name() string {
	switch t.Kind {
	case KindApp:
		return t.App.Name
	case KindService:
		return t.Service.Name
	}
	panic(fmt.Sprintf("target with invalid kind %d", t.Kind))
}

// Servers returns the entry's ordered target server list.
func (t Target) Servers() []string {
	switch t.Kind {
	case KindApp:
		return t.App.Servers
	case KindService:
		return t.Service.Servers
	}
	panic(fmt.Sprintf("target with invalid kind %d", t.Kind))
}

// AppTarget wraps an app entry.
func AppTarget(app *config.App) Target {
	return Target{Kind: KindApp, App: app}
}

// ServiceTarget wraps a service entry.
func ServiceTarget(svc *config.Service) Target {
	return Target{Kind: KindService, Service: svc}
}

// =============================================================================
// Container Labels
// =============================================================================

// Label keys stamped on every container drydock creates. Decommissioning
// finds previous releases by label, never by name parsing.
const (
	LabelManaged = "sh.drydock.managed"
	LabelProject = "sh.drydock.project"
	LabelApp     = "sh.drydock.app"
	LabelService = "sh.drydock.service"
	LabelRelease = "sh.drydock.release"
)

// =============================================================================
// Deployment Context
// =============================================================================

// Flags are the caller-supplied mode switches for one run.
type Flags struct {
	SkipCleanCheck bool
	ServicesMode   bool
	Verbose        bool
}

// Context is the immutable per-run aggregate shared by every phase. It is
// built exactly once by the coordinator and read-only thereafter; no target's
// handling may mutate another target's view of it.
type Context struct {
	Config    *config.Config
	Secrets   map[string]string
	ReleaseID release.ID
	Project   string
	Network   string
	Targets   []Target
	Flags     Flags
}

// Hosts returns the distinct server hostnames touched by the resolved
// targets, in first-seen order.
func (c *Context) Hosts() []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, t := range c.Targets {
		for _, server := range t.Servers() {
			if !seen[server] {
				seen[server] = true
				hosts = append(hosts, server)
			}
		}
	}
	return hosts
}

// ResolveEnv merges an entry's plain environment with its secret references.
// A secret key missing from the run's secret map yields a warning entry in
// the returned slice and the variable is left unset; the deployment proceeds.
func (c *Context) ResolveEnv(env map[string]string, secretRefs []string) (map[string]string, []string) {
	resolved := make(map[string]string, len(env)+len(secretRefs))
	for k, v := range env {
		resolved[k] = v
	}
	var missing []string
	for _, key := range secretRefs {
		value, ok := c.Secrets[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		resolved[key] = value
	}
	return resolved, missing
}
