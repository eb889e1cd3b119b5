// Package engine drives the container engine: remotely over SSH for fleet
// hosts, locally through the Docker SDK for image builds and pushes.
package engine

import "context"

// =============================================================================
// Container Spec
// =============================================================================

// ContainerSpec defines the container a deploy creates on a host. Port and
// volume specs stay in docker CLI syntax; they were validated at config load.
type ContainerSpec struct {
	Name         string
	Image        string
	Network      string
	NetworkAlias string
	Ports        []string
	Volumes      []string
	Env          map[string]string
	Labels       map[string]string
	Restart      string // Default: "unless-stopped"
}

// =============================================================================
// Engine Interfaces
// =============================================================================

// Engine is the host-scoped capability set every deploy operation runs
// against. Implementations are single-host: one Engine never touches more
// than the host it was dialed for. All operations block until the remote
// command finishes.
type Engine interface {
	// Host returns the hostname this engine is scoped to.
	Host() string

	// NetworkExists reports whether the named network exists on the host.
	NetworkExists(ctx context.Context, name string) (bool, error)
	// ContainerRunning reports whether the named container is running.
	ContainerRunning(ctx context.Context, name string) (bool, error)

	// Login authenticates against a registry on the host. Callers pair
	// every Login with exactly one Logout.
	Login(ctx context.Context, registry, username, password string) error
	// Logout clears the host's cached credential for the registry.
	Logout(ctx context.Context, registry string) error
	// PullImage pulls an image reference onto the host.
	PullImage(ctx context.Context, ref string) error

	// CreateContainer creates and starts a container from the spec.
	CreateContainer(ctx context.Context, spec ContainerSpec) error
	// StopContainer stops a container. Absence is ErrContainerNotFound.
	StopContainer(ctx context.Context, name string) error
	// RemoveContainer removes a stopped container.
	RemoveContainer(ctx context.Context, name string) error
	// ListContainers returns the names of containers matching every label.
	ListContainers(ctx context.Context, labels map[string]string) ([]string, error)

	// ContainerHealth returns the engine-native health status of a
	// container: "healthy", "unhealthy", "starting", or "" when the
	// container defines no healthcheck.
	ContainerHealth(ctx context.Context, name string) (string, error)
	// ContainerIP returns the container's address on the given network.
	ContainerIP(ctx context.Context, name, network string) (string, error)
	// HTTPProbe performs one HTTP liveness request from the host.
	HTTPProbe(ctx context.Context, url string) error

	// Exec runs a command inside a running container.
	Exec(ctx context.Context, container string, args ...string) error
	// PruneResources removes unused runtime resources on the host.
	PruneResources(ctx context.Context) error

	// Close releases the underlying remote session.
	Close() error
}

// Dialer opens host-scoped engines. The coordinator dials one engine per
// server scope and closes it on every exit path.
type Dialer interface {
	Dial(ctx context.Context, host string) (Engine, error)
}

// Builder performs the image operations that run on the operator machine
// before any server mutation: build, tag, push.
type Builder interface {
	// BuildImage builds the context directory into the given tag.
	BuildImage(ctx context.Context, spec BuildSpec, tag string) error
	// TagImage applies an additional reference to a local image.
	TagImage(ctx context.Context, src, dst string) error
	// PushImage pushes a reference using the supplied credentials. The
	// credential travels with the single request and is never cached.
	PushImage(ctx context.Context, ref string, auth PushAuth) error
	// Close releases the SDK client.
	Close() error
}

// BuildSpec describes one local image build.
type BuildSpec struct {
	Context    string
	Dockerfile string
	Args       map[string]string
	Platform   string
}

// PushAuth carries the per-request registry credential for a push.
type PushAuth struct {
	Registry  string
	Username  string
	Password  string
	Anonymous bool
}
