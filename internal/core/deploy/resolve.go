package deploy

import (
	"errors"

	"github.com/drydock-sh/drydock/internal/core/config"
)

// ErrNoTargets is returned when target resolution yields an empty set.
// The run must abort with no mutation attempted.
var ErrNoTargets = errors.New("no deployable targets resolved")

// =============================================================================
// Target Resolution
// =============================================================================

// Resolution is the outcome of matching requested names against the manifest.
type Resolution struct {
	Targets []Target
	// Unmatched lists requested names with no configured entry of the
	// selected kind. Unmatched names are warned and skipped, never fatal
	// on their own.
	Unmatched []string
}

// ResolveTargets matches the requested names against the configured entries
// of the selected kind, preserving the caller's order. With no names
// requested, every configured entry of that kind is targeted. An empty
// resulting set is ErrNoTargets.
func ResolveTargets(cfg *config.Config, names []string, servicesMode bool) (Resolution, error) {
	var res Resolution

	if servicesMode {
		byName := make(map[string]*config.Service, len(cfg.Services))
		for i := range cfg.Services {
			byName[cfg.Services[i].Name] = &cfg.Services[i]
		}
		if len(names) == 0 {
			for i := range cfg.Services {
				res.Targets = append(res.Targets, ServiceTarget(&cfg.Services[i]))
			}
		} else {
			for _, name := range names {
				svc, ok := byName[name]
				if !ok {
					res.Unmatched = append(res.Unmatched, name)
					continue
				}
				res.Targets = append(res.Targets, ServiceTarget(svc))
			}
		}
	} else {
		byName := make(map[string]*config.App, len(cfg.Apps))
		for i := range cfg.Apps {
			byName[cfg.Apps[i].Name] = &cfg.Apps[i]
		}
		if len(names) == 0 {
			for i := range cfg.Apps {
				res.Targets = append(res.Targets, AppTarget(&cfg.Apps[i]))
			}
		} else {
			for _, name := range names {
				app, ok := byName[name]
				if !ok {
					res.Unmatched = append(res.Unmatched, name)
					continue
				}
				res.Targets = append(res.Targets, AppTarget(app))
			}
		}
	}

	if len(res.Targets) == 0 {
		return res, ErrNoTargets
	}
	return res, nil
}
