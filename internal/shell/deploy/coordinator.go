package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/drydock-sh/drydock/internal/core/config"
	coredeploy "github.com/drydock-sh/drydock/internal/core/deploy"
	"github.com/drydock-sh/drydock/internal/core/registry"
	"github.com/drydock-sh/drydock/internal/core/release"
	"github.com/drydock-sh/drydock/internal/shell/engine"
	"github.com/drydock-sh/drydock/internal/shell/sshexec"
	"github.com/drydock-sh/drydock/internal/shell/store"
	"github.com/drydock-sh/drydock/internal/shell/workspace"
)

// =============================================================================
// Release Coordinator
// =============================================================================

// WorkspaceChecker is the slice of the workspace package the coordinator
// needs.
type WorkspaceChecker interface {
	Check(ctx context.Context) (workspace.Status, error)
}

// Options are the caller-supplied inputs for one run.
type Options struct {
	ConfigPath string
	Names      []string
	Flags      coredeploy.Flags
}

// Coordinator drives the fixed, non-reorderable phase sequence of a run:
// verify-clean-workspace → load-config-and-secrets → resolve-targets →
// verify-infrastructure → build+push → deploy → report. Execution is
// single-threaded: entries and servers are handled strictly one at a time.
type Coordinator struct {
	logger *slog.Logger
	out    io.Writer

	workspace   WorkspaceChecker
	loadConfig  func(path string) (*config.Config, error)
	loadSecrets func(path string) (map[string]string, error)
	newDialer   func(cfg *config.Config) engine.Dialer
	newBuilder  func() (engine.Builder, error)
	openStore   func(path string) (store.Store, error)
}

// NewCoordinator wires a coordinator against the real collaborators.
func NewCoordinator(logger *slog.Logger, out io.Writer) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Coordinator{
		logger:      logger.With("component", "coordinator"),
		out:         out,
		workspace:   &workspace.Checker{},
		loadConfig:  config.Load,
		loadSecrets: config.LoadSecrets,
		newDialer: func(cfg *config.Config) engine.Dialer {
			return engine.NewSSHDialer(cfg.SSH, sshexec.DefaultConfig(), logger)
		},
		newBuilder: func() (engine.Builder, error) {
			return engine.NewLocalBuilder(logger)
		},
		openStore: func(path string) (store.Store, error) {
			return store.NewSQLiteStore(path)
		},
	}
}

// Run executes one deploy run end to end and returns the full report. The
// caller maps report.Clean() onto the process exit status.
func (c *Coordinator) Run(ctx context.Context, opts Options) *RunReport {
	report := &RunReport{StartedAt: time.Now()}

	var (
		cfg     *config.Config
		secrets map[string]string
		run     *coredeploy.Context
		dialer  engine.Dialer
	)

	phases := []coredeploy.Phase{
		c.phase("verify-clean-workspace", func(ctx context.Context) coredeploy.Result {
			if opts.Flags.SkipCleanCheck {
				c.logger.Info("clean-workspace check skipped by flag")
				return coredeploy.OK()
			}
			status, err := c.workspace.Check(ctx)
			if err != nil {
				return coredeploy.Fatal(fmt.Errorf("workspace check: %w", err))
			}
			if !status.Clean {
				return coredeploy.Fatal(fmt.Errorf(
					"working tree has uncommitted changes (%d files); commit them or pass --skip-clean-check",
					len(status.Dirty)))
			}
			return coredeploy.OK()
		}),

		c.phase("load-config-and-secrets", func(ctx context.Context) coredeploy.Result {
			var err error
			cfg, err = c.loadConfig(opts.ConfigPath)
			if err != nil {
				return coredeploy.Fatal(err)
			}
			secrets, err = c.loadSecrets(cfg.SecretsFile)
			if err != nil {
				return coredeploy.Fatal(err)
			}
			return coredeploy.OK()
		}),

		c.phase("resolve-targets", func(ctx context.Context) coredeploy.Result {
			res, err := coredeploy.ResolveTargets(cfg, opts.Names, opts.Flags.ServicesMode)
			for _, name := range res.Unmatched {
				c.logger.Warn("requested target not configured, skipping", "name", name)
				fmt.Fprintf(c.out, "warning: no configured entry named %q\n", name)
			}
			if err != nil {
				return coredeploy.Fatal(err)
			}

			id := release.New()
			run = &coredeploy.Context{
				Config:    cfg,
				Secrets:   secrets,
				ReleaseID: id,
				Project:   cfg.Project,
				Network:   cfg.Network,
				Targets:   res.Targets,
				Flags:     opts.Flags,
			}
			report.ReleaseID = id
			report.Project = cfg.Project
			c.logger.Info("targets resolved",
				"release", id, "targets", len(run.Targets), "hosts", len(run.Hosts()))
			return coredeploy.OK()
		}),

		c.phase("verify-infrastructure", func(ctx context.Context) coredeploy.Result {
			dialer = c.newDialer(cfg)
			verifier := NewVerifier(dialer, c.logger)
			vr := verifier.Verify(ctx, run.Hosts(), run.Network, cfg.Proxy.Container)
			if !vr.OK() {
				return coredeploy.Fatal(fmt.Errorf("infrastructure verification failed: %s",
					vr.Remediation(run.Network, cfg.Proxy.Container)))
			}
			return coredeploy.OK()
		}),

		c.phase("build-and-push", func(ctx context.Context) coredeploy.Result {
			return c.buildAndPush(ctx, run)
		}),

		c.phase("deploy", func(ctx context.Context) coredeploy.Result {
			return c.deployTargets(ctx, run, dialer, report)
		}),
	}

	report.Summary = coredeploy.RunPipeline(ctx, phases)

	// Report phase: summary first, then best-effort history.
	fmt.Fprintf(c.out, "==> report\n")
	report.WriteSummary(c.out)
	if cfg != nil && report.ReleaseID != "" {
		c.saveHistory(ctx, cfg, report)
	}

	return report
}

// phase wraps a pipeline phase with its user-visible announcement.
func (c *Coordinator) phase(name string, run func(ctx context.Context) coredeploy.Result) coredeploy.Phase {
	return coredeploy.Phase{
		Name: name,
		Run: func(ctx context.Context) coredeploy.Result {
			fmt.Fprintf(c.out, "==> %s\n", name)
			c.logger.Info("phase started", "phase", name)
			res := run(ctx)
			if res.Outcome == coredeploy.OutcomeFatal {
				c.logger.Error("phase fatal", "phase", name, "error", res.Err)
			}
			return res
		},
	}
}

// =============================================================================
// Build Phase
// =============================================================================

// buildAndPush builds, tags, and pushes every app entry's release image.
// All entries complete before any server mutation begins, so a broken build
// for one entry can never leave a sibling half-deployed. Any failure is
// fatal: nothing has touched a server yet.
func (c *Coordinator) buildAndPush(ctx context.Context, run *coredeploy.Context) coredeploy.Result {
	apps := appTargets(run)
	if len(apps) == 0 {
		return coredeploy.OK()
	}

	builder, err := c.newBuilder()
	if err != nil {
		return coredeploy.Fatal(fmt.Errorf("connect local engine: %w", err))
	}
	defer builder.Close()

	for _, app := range apps {
		ref := coredeploy.ReleaseImageRef(app.Image, run.ReleaseID)

		if app.Build != nil {
			spec := engine.BuildSpec{
				Context:    app.Build.Context,
				Dockerfile: app.Build.Dockerfile,
				Args:       app.Build.Args,
				Platform:   app.Build.Platform,
			}
			if err := builder.BuildImage(ctx, spec, ref); err != nil {
				return coredeploy.Fatal(fmt.Errorf("build %s: %w", app.Name, err))
			}
		} else {
			// No build spec: the configured image is retagged into
			// this release so every server pulls the same pinned ref.
			if err := builder.TagImage(ctx, app.Image, ref); err != nil {
				return coredeploy.Fatal(fmt.Errorf("tag %s: %w", app.Name, err))
			}
		}

		auth := registry.Resolve(app.Registry, run.Config.Registry, run.Secrets)
		err := builder.PushImage(ctx, ref, engine.PushAuth{
			Registry:  auth.Registry,
			Username:  auth.Username,
			Password:  auth.Password,
			Anonymous: auth.Anonymous,
		})
		if err != nil {
			return coredeploy.Fatal(fmt.Errorf("push %s: %w", app.Name, err))
		}
		c.logger.Info("image pushed", "app", app.Name, "image", ref)
	}
	return coredeploy.OK()
}

// appTargets extracts the app entries from the resolved target list.
func appTargets(run *coredeploy.Context) []*config.App {
	var apps []*config.App
	for _, t := range run.Targets {
		if t.Kind == coredeploy.KindApp {
			apps = append(apps, t.App)
		}
	}
	return apps
}

// =============================================================================
// Deploy Phase
// =============================================================================

// deployTargets walks every (entry, server) pair strictly sequentially. A
// pair's failure is scoped: siblings continue, and the failure surfaces both
// immediately and in the end-of-run summary.
func (c *Coordinator) deployTargets(ctx context.Context, run *coredeploy.Context, dialer engine.Dialer, report *RunReport) coredeploy.Result {
	bluegreen := NewBlueGreen(NewProxyClient(run.Config.Proxy.Container, c.logger), c.logger)
	replacer := NewServiceReplacer(c.logger)

	var scoped []coredeploy.ScopedFailure
	for _, target := range run.Targets {
		for _, server := range target.Servers() {
			outcome := c.deployOne(ctx, run, target, server, dialer, bluegreen, replacer)
			report.Outcomes = append(report.Outcomes, outcome)

			if outcome.Failed() {
				fmt.Fprintf(c.out, "  %s @ %s: FAILED: %v\n", outcome.Target, server, outcome.Err)
				scoped = append(scoped, coredeploy.ScopedFailure{
					Target: outcome.Target,
					Server: server,
					State:  outcome.State,
					Err:    outcome.Err,
				})
			} else {
				fmt.Fprintf(c.out, "  %s @ %s: ok (%s)\n",
					outcome.Target, server, outcome.Duration.Round(time.Millisecond))
			}
		}
	}
	return coredeploy.Failures(scoped)
}

// deployOne handles a single (entry, server) pair inside its own session
// scope: the engine is dialed at entry and closed on every exit path.
func (c *Coordinator) deployOne(ctx context.Context, run *coredeploy.Context, target coredeploy.Target, server string, dialer engine.Dialer, bluegreen *BlueGreen, replacer *ServiceReplacer) ServerOutcome {
	eng, err := dialer.Dial(ctx, server)
	if err != nil {
		return ServerOutcome{
			Kind:   target.Kind,
			Target: target.Name(),
			Server: server,
			State:  coredeploy.StateFailed,
			Err:    fmt.Errorf("connect: %w", err),
		}
	}
	defer eng.Close()

	switch target.Kind {
	case coredeploy.KindApp:
		return bluegreen.Deploy(ctx, run, target.App, eng)
	case coredeploy.KindService:
		return replacer.Replace(ctx, run, target.Service, eng)
	}
	panic(fmt.Sprintf("target with invalid kind %d", target.Kind))
}

// =============================================================================
// History
// =============================================================================

// saveHistory records the run. Best-effort: history never changes a deploy
// outcome.
func (c *Coordinator) saveHistory(ctx context.Context, cfg *config.Config, report *RunReport) {
	if cfg.HistoryDB == "" {
		return
	}
	st, err := c.openStore(cfg.HistoryDB)
	if err != nil {
		c.logger.Warn("history store unavailable", "error", err)
		return
	}
	defer st.Close()

	outcomes := make([]store.Outcome, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		outcomes = append(outcomes, store.Outcome{
			Kind:       o.Kind.String(),
			Target:     o.Target,
			Server:     o.Server,
			State:      o.State.String(),
			Error:      errText,
			DurationMS: o.Duration.Milliseconds(),
		})
	}

	err = st.SaveRun(ctx, store.Run{
		ReleaseID:  report.ReleaseID.String(),
		Project:    strings.TrimSpace(report.Project),
		StartedAt:  report.StartedAt,
		FinishedAt: time.Now(),
		Clean:      report.Clean(),
	}, outcomes)
	if err != nil {
		c.logger.Warn("failed to record run history", "error", err)
	}
}
