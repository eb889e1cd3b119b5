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
// Service Replacement Engine
// =============================================================================

// ServiceReplacer performs the simpler in-place replacement for services:
// no health gating, no dual identity. The service is unavailable between
// remove and create; that gap is an accepted property, not a defect.
type ServiceReplacer struct {
	logger *slog.Logger
}

// NewServiceReplacer creates the engine.
func NewServiceReplacer(logger *slog.Logger) *ServiceReplacer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceReplacer{logger: logger.With("component", "service")}
}

// Replace swaps one service on one server: pull, best-effort stop+remove of
// the stable name, create under the same name, then a best-effort prune.
func (s *ServiceReplacer) Replace(ctx context.Context, run *coredeploy.Context, svc *config.Service, eng engine.Engine) ServerOutcome {
	start := time.Now()
	outcome := ServerOutcome{
		Kind:   coredeploy.KindService,
		Target: svc.Name,
		Server: eng.Host(),
	}
	logger := s.logger.With("service", svc.Name, "server", eng.Host())

	fail := func(err error) ServerOutcome {
		logger.Error("replacement failed", "error", err)
		outcome.State = coredeploy.StateFailed
		outcome.Err = err
		outcome.Duration = time.Since(start)
		return outcome
	}

	// Pull the target image, credential scoped around the pull.
	auth := registry.Resolve(nil, run.Config.Registry, run.Secrets)
	logger.Info("pulling image", "image", svc.Image)
	if err := pullWithAuth(ctx, eng, auth, svc.Image); err != nil {
		return fail(err)
	}

	// Replace the stable identity. A missing prior container is a no-op:
	// first deployments look exactly like redeployments.
	name := coredeploy.ServiceContainerName(svc.Name)
	if err := eng.StopContainer(ctx, name); err != nil {
		if errors.Is(err, engine.ErrContainerNotFound) {
			logger.Info("no prior container to stop", "container", name)
		} else {
			logger.Warn("failed to stop prior container", "container", name, "error", err)
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("stop %s failed: %v", name, err))
		}
	}
	if err := eng.RemoveContainer(ctx, name); err != nil && !errors.Is(err, engine.ErrContainerNotFound) {
		logger.Warn("failed to remove prior container", "container", name, "error", err)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("remove %s failed: %v", name, err))
	}

	env, missing := run.ResolveEnv(svc.Env, svc.EnvSecrets)
	for _, key := range missing {
		logger.Warn("secret reference unresolved, variable left unset", "secret", key)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("secret %s unresolved", key))
	}

	logger.Info("creating container", "container", name, "image", svc.Image)
	err := eng.CreateContainer(ctx, engine.ContainerSpec{
		Name:    name,
		Image:   svc.Image,
		Network: run.Network,
		Ports:   svc.Ports,
		Volumes: svc.Volumes,
		Env:     env,
		Labels: map[string]string{
			coredeploy.LabelManaged: "true",
			coredeploy.LabelProject: run.Project,
			coredeploy.LabelService: svc.Name,
		},
	})
	if err != nil {
		return fail(err)
	}

	// Prune is housekeeping, never a failure.
	if err := eng.PruneResources(ctx); err != nil {
		logger.Warn("prune failed", "error", err)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("prune failed: %v", err))
	}

	outcome.State = coredeploy.StateDone
	outcome.Duration = time.Since(start)
	logger.Info("replacement done", "duration", outcome.Duration)
	return outcome
}
