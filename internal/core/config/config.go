// Package config loads and validates the drydock project manifest.
//
// A manifest declares the project, its target servers' SSH defaults, the
// registry, and the app and service entries that deploy runs operate on.
// Loaded configuration is a read-only projection: nothing in the engine
// mutates it after Load returns.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds the full project manifest.
type Config struct {
	Project     string        `mapstructure:"project"`
	Network     string        `mapstructure:"network"`
	SecretsFile string        `mapstructure:"secrets_file"`
	HistoryDB   string        `mapstructure:"history_db"`
	Log         LogConfig     `mapstructure:"log"`
	SSH         SSHConfig     `mapstructure:"ssh"`
	Registry    Registry      `mapstructure:"registry"`
	Proxy       ProxyRuntime  `mapstructure:"proxy"`
	Health      HealthCheck   `mapstructure:"health"`
	Apps        []App         `mapstructure:"apps"`
	Services    []Service     `mapstructure:"services"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SSHConfig holds fleet-wide SSH defaults plus per-host overrides.
type SSHConfig struct {
	User    string             `mapstructure:"user"`
	Port    int                `mapstructure:"port"`
	KeyFile string             `mapstructure:"key_file"`
	Hosts   map[string]HostSSH `mapstructure:"hosts"`
}

// HostSSH overrides SSH settings for a single host. Zero fields fall back to
// the fleet defaults.
type HostSSH struct {
	User    string `mapstructure:"user"`
	Port    int    `mapstructure:"port"`
	KeyFile string `mapstructure:"key_file"`
}

// ForHost resolves the effective SSH settings for a host.
func (c SSHConfig) ForHost(host string) HostSSH {
	resolved := HostSSH{User: c.User, Port: c.Port, KeyFile: c.KeyFile}
	override, ok := c.Hosts[host]
	if !ok {
		return resolved
	}
	if override.User != "" {
		resolved.User = override.User
	}
	if override.Port != 0 {
		resolved.Port = override.Port
	}
	if override.KeyFile != "" {
		resolved.KeyFile = override.KeyFile
	}
	return resolved
}

// Registry identifies an image registry and the secret holding its password.
type Registry struct {
	URL            string `mapstructure:"url"`
	Username       string `mapstructure:"username"`
	PasswordSecret string `mapstructure:"password_secret"`
}

// ProxyRuntime configures the reverse-proxy sidecar expected on every host.
type ProxyRuntime struct {
	Container string `mapstructure:"container"`
}

// HealthCheck configures the health gate applied to a new app container
// before traffic cutover.
type HealthCheck struct {
	Path         string        `mapstructure:"path"`
	Port         int           `mapstructure:"port"`
	Attempts     int           `mapstructure:"attempts"`
	Interval     time.Duration `mapstructure:"interval"`
	Threshold    int           `mapstructure:"threshold"`
	EngineStatus bool          `mapstructure:"engine_status"`
}

// App is a released, proxy-capable deployment entry.
type App struct {
	Name       string            `mapstructure:"name"`
	Image      string            `mapstructure:"image"`
	Build      *BuildSpec        `mapstructure:"build"`
	Servers    []string          `mapstructure:"servers"`
	Ports      []string          `mapstructure:"ports"`
	Volumes    []string          `mapstructure:"volumes"`
	Env        map[string]string `mapstructure:"env"`
	EnvSecrets []string          `mapstructure:"env_secrets"`
	Proxy      *ProxySpec        `mapstructure:"proxy"`
	Registry   *Registry         `mapstructure:"registry"`
	Health     *HealthCheck      `mapstructure:"health"`
}

// BuildSpec describes how an app image is built before a run.
type BuildSpec struct {
	Context    string            `mapstructure:"context"`
	Dockerfile string            `mapstructure:"dockerfile"`
	Args       map[string]string `mapstructure:"args"`
	Platform   string            `mapstructure:"platform"`
}

// ProxySpec declares the external hostnames routed to an app and the
// container port they target.
type ProxySpec struct {
	Hosts []string `mapstructure:"hosts"`
	Port  int      `mapstructure:"port"`
}

// Service is a non-released entry replaced in place under a stable name.
type Service struct {
	Name       string            `mapstructure:"name"`
	Image      string            `mapstructure:"image"`
	Servers    []string          `mapstructure:"servers"`
	Ports      []string          `mapstructure:"ports"`
	Volumes    []string          `mapstructure:"volumes"`
	Env        map[string]string `mapstructure:"env"`
	EnvSecrets []string          `mapstructure:"env_secrets"`
}

// =============================================================================
// Config Loading
// =============================================================================

// Load reads the manifest at configPath and resolves defaults.
// A missing or unparsable manifest is fatal: no deploy run can proceed
// without one.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ssh.user", "root")
	v.SetDefault("ssh.port", 22)
	v.SetDefault("proxy.container", "drydock-proxy")
	v.SetDefault("health.path", "/healthz")
	v.SetDefault("health.attempts", 10)
	v.SetDefault("health.interval", "3s")
	v.SetDefault("health.threshold", 2)
	v.SetDefault("history_db", ".drydock/history.db")

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	v.SetEnvPrefix("DRYDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Network == "" {
		cfg.Network = cfg.Project + "-net"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks manifest invariants: a project name, unique entry names,
// images and servers on every entry, and parseable port specs.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("config: project name is required")
	}

	names := make(map[string]bool)
	for i := range c.Apps {
		app := &c.Apps[i]
		if err := validateEntry("app", app.Name, app.Image, app.Servers, app.Ports, names); err != nil {
			return err
		}
		if app.Proxy != nil {
			if len(app.Proxy.Hosts) == 0 {
				return fmt.Errorf("config: app %s: proxy block requires at least one host", app.Name)
			}
			if app.Proxy.Port == 0 {
				return fmt.Errorf("config: app %s: proxy block requires a port", app.Name)
			}
		}
	}
	for i := range c.Services {
		svc := &c.Services[i]
		if err := validateEntry("service", svc.Name, svc.Image, svc.Servers, svc.Ports, names); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(kind, name, image string, servers, ports []string, names map[string]bool) error {
	if name == "" {
		return fmt.Errorf("config: %s with empty name", kind)
	}
	if names[name] {
		return fmt.Errorf("config: duplicate entry name %q", name)
	}
	names[name] = true
	if image == "" {
		return fmt.Errorf("config: %s %s: image is required", kind, name)
	}
	if len(servers) == 0 {
		return fmt.Errorf("config: %s %s: at least one server is required", kind, name)
	}
	for _, spec := range ports {
		if _, err := nat.ParsePortSpec(spec); err != nil {
			return fmt.Errorf("config: %s %s: invalid port spec %q: %w", kind, name, spec, err)
		}
	}
	return nil
}

// HealthFor resolves the health gate for an app: the app's own block when
// present, otherwise the project default.
func (c *Config) HealthFor(app *App) HealthCheck {
	if app.Health != nil {
		return *app.Health
	}
	return c.Health
}
