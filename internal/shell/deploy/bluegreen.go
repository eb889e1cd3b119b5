package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/drydock-sh/drydock/internal/core/config"
	coredeploy "github.com/drydock-sh/drydock/internal/core/deploy"
	"github.com/drydock-sh/drydock/internal/core/registry"
	"github.com/drydock-sh/drydock/internal/shell/engine"
)

// =============================================================================
// Blue-Green Deployment Engine
// =============================================================================

// BlueGreen runs the health-gated cutover sequence for one (app, server)
// pair at a time. Each run walks pulling → starting-candidate →
// health-checking → cutting-over → decommissioning → done, with failed
// absorbing from any non-terminal state.
type BlueGreen struct {
	proxy  *ProxyClient
	logger *slog.Logger
}

// NewBlueGreen creates the engine.
func NewBlueGreen(proxy *ProxyClient, logger *slog.Logger) *BlueGreen {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlueGreen{
		proxy:  proxy,
		logger: logger.With("component", "bluegreen"),
	}
}

// Deploy moves one app release onto one server. It is called strictly after
// the app's image has been built and pushed; the engine is host-scoped and
// owned by the caller. A failed outcome carries the state that failed;
// nothing here aborts sibling servers or sibling apps.
func (b *BlueGreen) Deploy(ctx context.Context, run *coredeploy.Context, app *config.App, eng engine.Engine) ServerOutcome {
	start := time.Now()
	outcome := ServerOutcome{
		Kind:   coredeploy.KindApp,
		Target: app.Name,
		Server: eng.Host(),
	}
	logger := b.logger.With("app", app.Name, "server", eng.Host(), "release", run.ReleaseID)

	fail := func(state coredeploy.State, err error) ServerOutcome {
		logger.Error("deployment failed", "state", state, "error", err)
		outcome.State = coredeploy.StateFailed
		outcome.Err = fmt.Errorf("%s: %w", state, err)
		outcome.Duration = time.Since(start)
		return outcome
	}

	imageRef := coredeploy.ReleaseImageRef(app.Image, run.ReleaseID)
	candidate := coredeploy.AppContainerName(app.Name, run.ReleaseID)

	// PULLING
	state := coredeploy.StatePulling
	logger.Info("pulling candidate image", "state", state, "image", imageRef)
	auth := registry.Resolve(app.Registry, run.Config.Registry, run.Secrets)
	if err := pullWithAuth(ctx, eng, auth, imageRef); err != nil {
		return fail(state, err)
	}

	// STARTING_CANDIDATE
	state = state.Next()
	logger.Info("starting candidate", "state", state, "container", candidate)
	env, missing := run.ResolveEnv(app.Env, app.EnvSecrets)
	for _, key := range missing {
		logger.Warn("secret reference unresolved, variable left unset", "secret", key)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("secret %s unresolved", key))
	}
	spec := engine.ContainerSpec{
		Name:         candidate,
		Image:        imageRef,
		Network:      run.Network,
		NetworkAlias: coredeploy.NetworkAlias(app.Name),
		Ports:        app.Ports,
		Volumes:      app.Volumes,
		Env:          env,
		Labels: map[string]string{
			coredeploy.LabelManaged: "true",
			coredeploy.LabelProject: run.Project,
			coredeploy.LabelApp:     app.Name,
			coredeploy.LabelRelease: run.ReleaseID.String(),
		},
	}
	if err := eng.CreateContainer(ctx, spec); err != nil {
		return fail(state, err)
	}

	// HEALTH_CHECKING
	state = state.Next()
	hc := run.Config.HealthFor(app)
	gate := coredeploy.Gate{Attempts: hc.Attempts, Interval: hc.Interval, Threshold: hc.Threshold}
	logger.Info("health checking candidate", "state", state,
		"attempts", gate.Attempts, "interval", gate.Interval, "threshold", gate.Threshold)
	verdict := gate.Await(ctx, b.probe(eng, app, hc, candidate, run.Network, logger))
	if verdict != coredeploy.VerdictPass {
		// The candidate stays running for operator diagnosis; the
		// previous release keeps serving traffic untouched.
		return fail(state, fmt.Errorf("health check never passed within %d attempts, candidate %s left running", gate.Attempts, candidate))
	}
	logger.Info("health verdict", "state", state, "verdict", verdict)

	// CUTTING_OVER
	state = state.Next()
	logger.Info("cutting over", "state", state, "alias", app.Name)
	urls, warnings := b.proxy.Configure(ctx, eng, app, run.Project)
	outcome.URLs = urls
	outcome.Warnings = append(outcome.Warnings, warnings...)

	// DECOMMISSIONING: best-effort. The candidate already serves traffic,
	// so a failure here is a warning, never a run failure.
	state = state.Next()
	logger.Info("decommissioning previous release", "state", state)
	outcome.Warnings = append(outcome.Warnings,
		b.decommission(ctx, eng, run, app.Name, candidate, logger)...)

	// DONE
	outcome.State = coredeploy.StateDone
	outcome.Duration = time.Since(start)
	logger.Info("deployment done", "state", outcome.State, "duration", outcome.Duration)
	return outcome
}

// probe builds the per-attempt health probe for a candidate. The app's
// configured checks are combined: when both the engine-native status and an
// HTTP endpoint are configured, an attempt passes only if both do. An app
// with neither falls back to a plain running check.
func (b *BlueGreen) probe(eng engine.Engine, app *config.App, hc config.HealthCheck, candidate, network string, logger *slog.Logger) coredeploy.Probe {
	port := hc.Port
	if port == 0 && app.Proxy != nil {
		port = app.Proxy.Port
	}
	useHTTP := hc.Path != "" && port != 0

	return func(ctx context.Context) bool {
		if hc.EngineStatus {
			status, err := eng.ContainerHealth(ctx, candidate)
			if err != nil || status != "healthy" {
				logger.Debug("engine health probe failed", "status", status, "error", err)
				return false
			}
		}
		if useHTTP {
			ip, err := eng.ContainerIP(ctx, candidate, network)
			if err != nil {
				logger.Debug("candidate address lookup failed", "error", err)
				return false
			}
			url := fmt.Sprintf("http://%s:%d%s", ip, port, hc.Path)
			if err := eng.HTTPProbe(ctx, url); err != nil {
				logger.Debug("http probe failed", "url", url, "error", err)
				return false
			}
		}
		if !hc.EngineStatus && !useHTTP {
			running, err := eng.ContainerRunning(ctx, candidate)
			return err == nil && running
		}
		return true
	}
}

// decommission stops and removes every previous-release container of the app
// on this host, identified by label. The candidate is excluded by name.
func (b *BlueGreen) decommission(ctx context.Context, eng engine.Engine, run *coredeploy.Context, appName, candidate string, logger *slog.Logger) []string {
	var warnings []string

	previous, err := eng.ListContainers(ctx, map[string]string{
		coredeploy.LabelProject: run.Project,
		coredeploy.LabelApp:     appName,
	})
	if err != nil {
		logger.Warn("could not list previous releases", "error", err)
		return []string{fmt.Sprintf("decommission skipped: %v", err)}
	}

	for _, name := range previous {
		if name == candidate {
			continue
		}
		if err := eng.StopContainer(ctx, name); err != nil && !errors.Is(err, engine.ErrContainerNotFound) {
			logger.Warn("failed to stop previous release", "container", name, "error", err)
			warnings = append(warnings, fmt.Sprintf("stop %s failed: %v", name, err))
			continue
		}
		if err := eng.RemoveContainer(ctx, name); err != nil && !errors.Is(err, engine.ErrContainerNotFound) {
			logger.Warn("failed to remove previous release", "container", name, "error", err)
			warnings = append(warnings, fmt.Sprintf("remove %s failed: %v", name, err))
			continue
		}
		logger.Info("previous release removed", "container", name)
	}
	return warnings
}

// pullWithAuth pulls an image with login scoped tightly around the pull.
// Every login is paired with exactly one logout, pull failure included, to
// minimize how long the credential sits cached on the host.
func pullWithAuth(ctx context.Context, eng engine.Engine, auth registry.Auth, ref string) error {
	if auth.Anonymous {
		return eng.PullImage(ctx, ref)
	}
	if err := eng.Login(ctx, auth.Registry, auth.Username, auth.Password); err != nil {
		return err
	}
	defer eng.Logout(ctx, auth.Registry)
	return eng.PullImage(ctx, ref)
}
