package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// shellQuote Tests
// =============================================================================

func TestShellQuote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "web-123", "web-123"},
		{"empty", "", "''"},
		{"space", "a b", "'a b'"},
		{"dollar", "$PATH", "'$PATH'"},
		{"embedded single quote", "it's", `'it'\''s'`},
		{"semicolon", "a;rm -rf /", `'a;rm -rf /'`},
		{"template braces", "{{.Name}}", "'{{.Name}}'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shellQuote(tt.in))
		})
	}
}

// =============================================================================
// Command Assembly Tests
// =============================================================================

func TestLoginCommand_PasswordNeverInArgv(t *testing.T) {
	cmd := loginCommand("ghcr.io", "bot")
	assert.Equal(t, "docker login ghcr.io --username bot --password-stdin", cmd)
}

func TestPullCommand(t *testing.T) {
	assert.Equal(t, "docker pull acme/web:20260831142501-9f3c2a1b",
		pullCommand("acme/web:20260831142501-9f3c2a1b"))
}

func TestRunCommand_Full(t *testing.T) {
	cmd := runCommand(ContainerSpec{
		Name:         "web-20260831142501-9f3c2a1b",
		Image:        "acme/web:20260831142501-9f3c2a1b",
		Network:      "acme-net",
		NetworkAlias: "web",
		Ports:        []string{"8080:8080"},
		Volumes:      []string{"data:/data"},
		Env:          map[string]string{"PORT": "8080", "DEBUG": "0"},
		Labels:       map[string]string{"sh.drydock.app": "web"},
	})

	want := "docker run --detach --name web-20260831142501-9f3c2a1b" +
		" --restart unless-stopped" +
		" --network acme-net --network-alias web" +
		" --publish 8080:8080 --volume data:/data" +
		" --env DEBUG=0 --env PORT=8080" +
		" --label sh.drydock.app=web" +
		" acme/web:20260831142501-9f3c2a1b"
	assert.Equal(t, want, cmd)
}

func TestRunCommand_MinimalDefaultsRestartPolicy(t *testing.T) {
	cmd := runCommand(ContainerSpec{Name: "redis", Image: "redis:7"})
	assert.Equal(t, "docker run --detach --name redis --restart unless-stopped redis:7", cmd)
}

func TestRunCommand_EnvOrderDeterministic(t *testing.T) {
	spec := ContainerSpec{
		Name:  "x",
		Image: "i",
		Env:   map[string]string{"B": "2", "A": "1", "C": "3"},
	}
	assert.Equal(t, runCommand(spec), runCommand(spec))
	assert.Contains(t, runCommand(spec), "--env A=1 --env B=2 --env C=3")
}

func TestListByLabelCommand(t *testing.T) {
	cmd := listByLabelCommand(map[string]string{
		"sh.drydock.project": "acme",
		"sh.drydock.app":     "web",
	})
	want := "docker ps --all --format '{{.Names}}'" +
		" --filter label=sh.drydock.app=web" +
		" --filter label=sh.drydock.project=acme"
	assert.Equal(t, want, cmd)
}

func TestHealthCommand(t *testing.T) {
	cmd := healthCommand("web-123")
	assert.Equal(t,
		"docker inspect --format '{{if .State.Health}}{{.State.Health.Status}}{{end}}' web-123",
		cmd)
}

func TestContainerIPCommand(t *testing.T) {
	cmd := containerIPCommand("web-123", "acme-net")
	assert.Equal(t,
		`docker inspect --format '{{(index .NetworkSettings.Networks "acme-net").IPAddress}}' web-123`,
		cmd)
}

func TestHTTPProbeCommand(t *testing.T) {
	cmd := httpProbeCommand("http://10.0.0.5:8080/healthz")
	assert.Equal(t,
		"curl --fail --silent --show-error --max-time 5 --output /dev/null http://10.0.0.5:8080/healthz",
		cmd)
}

func TestExecCommand(t *testing.T) {
	cmd := execCommand("drydock-proxy", []string{"register", "-host", "www.acme.com"})
	assert.Equal(t, "docker exec drydock-proxy register -host www.acme.com", cmd)
}

func TestPruneCommand(t *testing.T) {
	assert.Equal(t, "docker system prune --force", pruneCommand())
}
