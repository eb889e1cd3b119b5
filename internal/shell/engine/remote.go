package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/drydock-sh/drydock/internal/core/config"
	"github.com/drydock-sh/drydock/internal/core/registry"
	"github.com/drydock-sh/drydock/internal/shell/sshexec"
)

// =============================================================================
// Remote Engine
// =============================================================================

// Remote implements Engine by running docker CLI commands on one host over
// SSH.
type Remote struct {
	ssh    *sshexec.Client
	logger *slog.Logger
}

// NewRemote wraps an established SSH client.
func NewRemote(ssh *sshexec.Client, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		ssh:    ssh,
		logger: logger.With("component", "engine", "host", ssh.Host()),
	}
}

// Host returns the hostname this engine is scoped to.
func (r *Remote) Host() string {
	return r.ssh.Host()
}

// Close releases the SSH connection.
func (r *Remote) Close() error {
	return r.ssh.Close()
}

// =============================================================================
// Probes
// =============================================================================

// NetworkExists reports whether the named network exists on the host.
func (r *Remote) NetworkExists(ctx context.Context, name string) (bool, error) {
	out, err := r.ssh.Run(ctx, networkExistsCommand(name), nil)
	if err != nil {
		if strings.Contains(out.Combined(), "No such network") ||
			strings.Contains(out.Combined(), "not found") {
			return false, nil
		}
		return false, NewEngineError("NetworkExists", r.Host(), name, out.Combined(), err)
	}
	return strings.TrimSpace(out.Stdout) == name, nil
}

// ContainerRunning reports whether the named container is currently running.
func (r *Remote) ContainerRunning(ctx context.Context, name string) (bool, error) {
	out, err := r.ssh.Run(ctx, containerRunningCommand(name), nil)
	if err != nil {
		if strings.Contains(out.Combined(), "No such") {
			return false, nil
		}
		return false, NewEngineError("ContainerRunning", r.Host(), name, out.Combined(), err)
	}
	return strings.TrimSpace(out.Stdout) == "true", nil
}

// =============================================================================
// Registry Operations
// =============================================================================

// Login authenticates the host's engine against a registry. The password
// travels over stdin, never in the command line. Docker's notice about
// storing the credential unencrypted is not a failure.
func (r *Remote) Login(ctx context.Context, reg, username, password string) error {
	out, err := r.ssh.Run(ctx, loginCommand(reg, username), strings.NewReader(password))
	if !registry.LoginSucceeded(err, out.Combined()) {
		return NewEngineError("Login", r.Host(), reg, out.Combined(), ErrLoginFailed)
	}
	return nil
}

// Logout clears the host's cached credential for a registry.
func (r *Remote) Logout(ctx context.Context, reg string) error {
	out, err := r.ssh.Run(ctx, logoutCommand(reg), nil)
	if err != nil {
		return NewEngineError("Logout", r.Host(), reg, out.Combined(), err)
	}
	return nil
}

// PullImage pulls an image reference onto the host.
func (r *Remote) PullImage(ctx context.Context, ref string) error {
	r.logger.Debug("pulling image", "image", ref)
	out, err := r.ssh.Run(ctx, pullCommand(ref), nil)
	if err != nil {
		return NewEngineError("PullImage", r.Host(), ref, out.Combined(), ErrImagePullFailed)
	}
	return nil
}

// =============================================================================
// Container Operations
// =============================================================================

// CreateContainer creates and starts a container from the spec.
func (r *Remote) CreateContainer(ctx context.Context, spec ContainerSpec) error {
	r.logger.Debug("creating container", "name", spec.Name, "image", spec.Image)
	out, err := r.ssh.Run(ctx, runCommand(spec), nil)
	if err != nil {
		return NewEngineError("CreateContainer", r.Host(), spec.Name, out.Combined(), err)
	}
	return nil
}

// StopContainer stops a container. A missing container is
// ErrContainerNotFound, which decommission paths treat as a no-op.
func (r *Remote) StopContainer(ctx context.Context, name string) error {
	out, err := r.ssh.Run(ctx, stopCommand(name), nil)
	if err != nil {
		if strings.Contains(out.Combined(), "No such container") {
			return NewEngineError("StopContainer", r.Host(), name, "container not found", ErrContainerNotFound)
		}
		return NewEngineError("StopContainer", r.Host(), name, out.Combined(), err)
	}
	return nil
}

// RemoveContainer removes a stopped container.
func (r *Remote) RemoveContainer(ctx context.Context, name string) error {
	out, err := r.ssh.Run(ctx, removeCommand(name), nil)
	if err != nil {
		if strings.Contains(out.Combined(), "No such container") {
			return NewEngineError("RemoveContainer", r.Host(), name, "container not found", ErrContainerNotFound)
		}
		return NewEngineError("RemoveContainer", r.Host(), name, out.Combined(), err)
	}
	return nil
}

// ListContainers returns the names of containers carrying every given label,
// including stopped ones.
func (r *Remote) ListContainers(ctx context.Context, labels map[string]string) ([]string, error) {
	out, err := r.ssh.Run(ctx, listByLabelCommand(labels), nil)
	if err != nil {
		return nil, NewEngineError("ListContainers", r.Host(), "", out.Combined(), err)
	}
	var names []string
	for _, line := range strings.Split(out.Stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// =============================================================================
// Health Operations
// =============================================================================

// ContainerHealth returns the engine-native health status of a container.
func (r *Remote) ContainerHealth(ctx context.Context, name string) (string, error) {
	out, err := r.ssh.Run(ctx, healthCommand(name), nil)
	if err != nil {
		return "", NewEngineError("ContainerHealth", r.Host(), name, out.Combined(), err)
	}
	return strings.TrimSpace(out.Stdout), nil
}

// ContainerIP returns the container's address on the given network.
func (r *Remote) ContainerIP(ctx context.Context, name, network string) (string, error) {
	out, err := r.ssh.Run(ctx, containerIPCommand(name, network), nil)
	if err != nil {
		return "", NewEngineError("ContainerIP", r.Host(), name, out.Combined(), err)
	}
	ip := strings.TrimSpace(out.Stdout)
	if ip == "" {
		return "", NewEngineError("ContainerIP", r.Host(), name,
			fmt.Sprintf("container not attached to network %s", network), nil)
	}
	return ip, nil
}

// HTTPProbe performs one liveness request from the host.
func (r *Remote) HTTPProbe(ctx context.Context, url string) error {
	out, err := r.ssh.Run(ctx, httpProbeCommand(url), nil)
	if err != nil {
		return NewEngineError("HTTPProbe", r.Host(), url, out.Combined(), err)
	}
	return nil
}

// =============================================================================
// Misc Operations
// =============================================================================

// Exec runs a command inside a running container.
func (r *Remote) Exec(ctx context.Context, container string, args ...string) error {
	out, err := r.ssh.Run(ctx, execCommand(container, args), nil)
	if err != nil {
		return NewEngineError("Exec", r.Host(), container, out.Combined(), err)
	}
	return nil
}

// PruneResources removes unused runtime resources on the host.
func (r *Remote) PruneResources(ctx context.Context) error {
	out, err := r.ssh.Run(ctx, pruneCommand(), nil)
	if err != nil {
		return NewEngineError("PruneResources", r.Host(), "", out.Combined(), err)
	}
	return nil
}

// =============================================================================
// Dialer
// =============================================================================

// SSHDialer opens Remote engines using the manifest's SSH settings, with
// per-host overrides resolved at dial time.
type SSHDialer struct {
	sshCfg config.SSHConfig
	cfg    sshexec.Config
	logger *slog.Logger
}

// NewSSHDialer creates a dialer from the manifest's SSH block.
func NewSSHDialer(sshCfg config.SSHConfig, cfg sshexec.Config, logger *slog.Logger) *SSHDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSHDialer{sshCfg: sshCfg, cfg: cfg, logger: logger}
}

// Dial opens a host-scoped engine. The caller owns the engine and closes it
// on every exit path.
func (d *SSHDialer) Dial(ctx context.Context, host string) (Engine, error) {
	resolved := d.sshCfg.ForHost(host)
	client, err := sshexec.NewClient(sshexec.Credentials{
		Host:    host,
		User:    resolved.User,
		Port:    resolved.Port,
		KeyFile: resolved.KeyFile,
	}, d.cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}
	return NewRemote(client, d.logger), nil
}
