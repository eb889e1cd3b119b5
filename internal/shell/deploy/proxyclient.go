package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/drydock-sh/drydock/internal/core/config"
	coreproxy "github.com/drydock-sh/drydock/internal/core/proxy"
	"github.com/drydock-sh/drydock/internal/shell/engine"
)

// =============================================================================
// Proxy Configuration Client
// =============================================================================

// ProxyClient pushes routing configuration into the proxy sidecar on one
// host after a successful cutover.
type ProxyClient struct {
	container string
	logger    *slog.Logger
}

// NewProxyClient creates a client for the named sidecar container.
func NewProxyClient(container string, logger *slog.Logger) *ProxyClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyClient{
		container: container,
		logger:    logger.With("component", "proxy"),
	}
}

// Configure registers every hostname of the app's proxy spec independently.
// One hostname failing is logged and skipped; it blocks neither the
// remaining hostnames nor the server's deployment outcome. The returned
// urls cover only the hostnames that registered.
func (p *ProxyClient) Configure(ctx context.Context, eng engine.Engine, app *config.App, project string) (urls, warnings []string) {
	if app.Proxy == nil {
		return nil, nil
	}

	for _, hostname := range app.Proxy.Hosts {
		route := coreproxy.Route{
			Hostname: hostname,
			Alias:    app.Name,
			Port:     app.Proxy.Port,
			Project:  project,
		}

		if err := eng.Exec(ctx, p.container, coreproxy.RegisterArgs(route)...); err != nil {
			p.logger.Warn("proxy registration failed",
				"host", eng.Host(), "hostname", hostname, "target", route.Target(), "error", err)
			warnings = append(warnings, fmt.Sprintf("proxy registration for %s failed: %v", hostname, err))
			continue
		}

		p.logger.Info("proxy route registered",
			"host", eng.Host(), "hostname", hostname, "target", route.Target())
		urls = append(urls, coreproxy.URL(hostname))
	}
	return urls, warnings
}
