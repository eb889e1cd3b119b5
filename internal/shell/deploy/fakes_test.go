package deploy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/drydock-sh/drydock/internal/shell/engine"
)

// eventLog is shared across fakes so tests can assert cross-component
// ordering, builder pushes before engine pulls for instance.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// =============================================================================
// Fake Engine
// =============================================================================

type fakeEngine struct {
	host string
	log  *eventLog

	networks   map[string]bool
	running    map[string]bool
	health     map[string]string
	ips        map[string]string
	containers []string // ListContainers result

	loginErr      error
	pullErr       error
	createErr     error
	stopErr       error
	removeErr     error
	listErr       error
	execErr       error
	pruneErr      error
	httpErr       error
	networkErr    error
	runningErr    error
	containerIPEr error

	created []engine.ContainerSpec
	closed  bool
}

func newFakeEngine(host string, log *eventLog) *fakeEngine {
	return &fakeEngine{
		host:     host,
		log:      log,
		networks: map[string]bool{},
		running:  map[string]bool{},
		health:   map[string]string{},
		ips:      map[string]string{},
	}
}

func (f *fakeEngine) Host() string { return f.host }

func (f *fakeEngine) NetworkExists(ctx context.Context, name string) (bool, error) {
	f.log.add("%s: network-exists %s", f.host, name)
	return f.networks[name], f.networkErr
}

func (f *fakeEngine) ContainerRunning(ctx context.Context, name string) (bool, error) {
	f.log.add("%s: running %s", f.host, name)
	return f.running[name], f.runningErr
}

func (f *fakeEngine) Login(ctx context.Context, registry, username, password string) error {
	f.log.add("%s: login %s", f.host, registry)
	return f.loginErr
}

func (f *fakeEngine) Logout(ctx context.Context, registry string) error {
	f.log.add("%s: logout %s", f.host, registry)
	return nil
}

func (f *fakeEngine) PullImage(ctx context.Context, ref string) error {
	f.log.add("%s: pull %s", f.host, ref)
	return f.pullErr
}

func (f *fakeEngine) CreateContainer(ctx context.Context, spec engine.ContainerSpec) error {
	f.log.add("%s: create %s", f.host, spec.Name)
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, spec)
	f.running[spec.Name] = true
	return nil
}

func (f *fakeEngine) StopContainer(ctx context.Context, name string) error {
	f.log.add("%s: stop %s", f.host, name)
	return f.stopErr
}

func (f *fakeEngine) RemoveContainer(ctx context.Context, name string) error {
	f.log.add("%s: remove %s", f.host, name)
	return f.removeErr
}

func (f *fakeEngine) ListContainers(ctx context.Context, labels map[string]string) ([]string, error) {
	f.log.add("%s: list", f.host)
	return f.containers, f.listErr
}

func (f *fakeEngine) ContainerHealth(ctx context.Context, name string) (string, error) {
	return f.health[name], nil
}

func (f *fakeEngine) ContainerIP(ctx context.Context, name, network string) (string, error) {
	if f.containerIPEr != nil {
		return "", f.containerIPEr
	}
	return f.ips[name], nil
}

func (f *fakeEngine) HTTPProbe(ctx context.Context, url string) error {
	f.log.add("%s: probe %s", f.host, url)
	return f.httpErr
}

func (f *fakeEngine) Exec(ctx context.Context, container string, args ...string) error {
	f.log.add("%s: exec %s %v", f.host, container, args)
	return f.execErr
}

func (f *fakeEngine) PruneResources(ctx context.Context) error {
	f.log.add("%s: prune", f.host)
	return f.pruneErr
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

// count returns how many logged events contain the substring.
func (l *eventLog) count(substr string) int {
	n := 0
	for _, e := range l.all() {
		if strings.Contains(e, substr) {
			n++
		}
	}
	return n
}

// =============================================================================
// Fake Dialer
// =============================================================================

type fakeDialer struct {
	engines  map[string]*fakeEngine
	dialErrs map[string]error
}

func (d *fakeDialer) Dial(ctx context.Context, host string) (engine.Engine, error) {
	if err := d.dialErrs[host]; err != nil {
		return nil, err
	}
	eng, ok := d.engines[host]
	if !ok {
		return nil, fmt.Errorf("no fake engine for host %s", host)
	}
	return eng, nil
}

// =============================================================================
// Fake Builder
// =============================================================================

type fakeBuilder struct {
	log      *eventLog
	buildErr error
	tagErr   error
	pushErr  error
	pushed   []engine.PushAuth
	closed   bool
}

func (b *fakeBuilder) BuildImage(ctx context.Context, spec engine.BuildSpec, tag string) error {
	b.log.add("local: build %s", tag)
	return b.buildErr
}

func (b *fakeBuilder) TagImage(ctx context.Context, src, dst string) error {
	b.log.add("local: tag %s %s", src, dst)
	return b.tagErr
}

func (b *fakeBuilder) PushImage(ctx context.Context, ref string, auth engine.PushAuth) error {
	b.log.add("local: push %s", ref)
	if b.pushErr != nil {
		return b.pushErr
	}
	b.pushed = append(b.pushed, auth)
	return nil
}

func (b *fakeBuilder) Close() error {
	b.closed = true
	return nil
}
