package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drydock-sh/drydock/internal/core/config"
)

// =============================================================================
// Resolve Tests
// =============================================================================

func TestResolve_Precedence(t *testing.T) {
	project := config.Registry{
		URL:            "registry.acme.com",
		Username:       "deployer",
		PasswordSecret: "REGISTRY_PASSWORD",
	}
	secrets := map[string]string{
		"REGISTRY_PASSWORD": "project-pass",
		"GHCR_TOKEN":        "entry-pass",
	}

	tests := []struct {
		name    string
		entry   *config.Registry
		project config.Registry
		want    Auth
	}{
		{
			name:    "entry registry wins over project",
			entry:   &config.Registry{URL: "ghcr.io", Username: "bot", PasswordSecret: "GHCR_TOKEN"},
			project: project,
			want:    Auth{Registry: "ghcr.io", Username: "bot", Password: "entry-pass"},
		},
		{
			name:    "project registry when entry absent",
			entry:   nil,
			project: project,
			want:    Auth{Registry: "registry.acme.com", Username: "deployer", Password: "project-pass"},
		},
		{
			name:    "entry block without url falls through",
			entry:   &config.Registry{Username: "bot"},
			project: project,
			want:    Auth{Registry: "registry.acme.com", Username: "deployer", Password: "project-pass"},
		},
		{
			name:    "default anonymous when nothing configured",
			entry:   nil,
			project: config.Registry{},
			want:    Auth{Registry: DefaultRegistry, Anonymous: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.entry, tt.project, secrets)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_MissingSecretDoesNotFallThrough(t *testing.T) {
	// Precedence follows configuration shape: a configured registry whose
	// secret is absent resolves with an empty password, it never falls back
	// to the next level.
	entry := &config.Registry{URL: "ghcr.io", Username: "bot", PasswordSecret: "ABSENT"}
	project := config.Registry{URL: "registry.acme.com", Username: "deployer"}

	got := Resolve(entry, project, map[string]string{})

	assert.Equal(t, "ghcr.io", got.Registry)
	assert.Equal(t, "", got.Password)
	assert.False(t, got.Anonymous)
}

// =============================================================================
// LoginSucceeded Tests
// =============================================================================

func TestLoginSucceeded(t *testing.T) {
	tests := []struct {
		name   string
		runErr error
		output string
		want   bool
	}{
		{
			name: "clean success",
			want: true,
		},
		{
			name:   "unencrypted store notice is success",
			runErr: errors.New("exit status 1"),
			output: "WARNING! Your password will be stored unencrypted in /root/.docker/config.json.",
			want:   true,
		},
		{
			name:   "real failure",
			runErr: errors.New("exit status 1"),
			output: "Error response from daemon: Get \"https://ghcr.io/v2/\": denied",
			want:   false,
		},
		{
			name:   "failure with empty output",
			runErr: errors.New("exit status 1"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LoginSucceeded(tt.runErr, tt.output))
		})
	}
}
