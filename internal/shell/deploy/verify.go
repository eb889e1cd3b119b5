// Package deploy sequences deploy runs against the fleet: infrastructure
// verification, the blue-green engine, service replacement, proxy
// configuration, and the coordinator binding them together.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/drydock-sh/drydock/internal/shell/engine"
)

// =============================================================================
// Infrastructure Verifier
// =============================================================================

// Verifier checks that every touched host carries the project network and a
// live proxy sidecar before any mutation. It is a pure precondition check:
// missing infrastructure is reported, never created.
type Verifier struct {
	dialer engine.Dialer
	logger *slog.Logger
}

// NewVerifier creates a verifier.
func NewVerifier(dialer engine.Dialer, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		dialer: dialer,
		logger: logger.With("component", "verifier"),
	}
}

// VerifyReport aggregates the hosts failing either check.
type VerifyReport struct {
	MissingNetwork []string
	MissingProxy   []string
}

// OK reports whether the whole fleet passed.
func (r VerifyReport) OK() bool {
	return len(r.MissingNetwork) == 0 && len(r.MissingProxy) == 0
}

// Remediation renders the operator-facing abort message.
func (r VerifyReport) Remediation(network, proxyContainer string) string {
	var b strings.Builder
	if len(r.MissingNetwork) > 0 {
		fmt.Fprintf(&b, "network %q missing on: %s; create it with `docker network create %s`",
			network, strings.Join(r.MissingNetwork, ", "), network)
	}
	if len(r.MissingProxy) > 0 {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "proxy container %q not running on: %s",
			proxyContainer, strings.Join(r.MissingProxy, ", "))
	}
	return b.String()
}

// Verify probes each distinct host once over a transient session. The
// network and proxy checks are independent, but any transport error while
// probing a host counts as both checks failed for that host: an unreachable
// host is never assumed healthy.
func (v *Verifier) Verify(ctx context.Context, hosts []string, network, proxyContainer string) VerifyReport {
	var report VerifyReport

	for _, host := range hosts {
		logger := v.logger.With("host", host)

		eng, err := v.dialer.Dial(ctx, host)
		if err != nil {
			logger.Warn("host unreachable, failing both checks", "error", err)
			report.MissingNetwork = append(report.MissingNetwork, host)
			report.MissingProxy = append(report.MissingProxy, host)
			continue
		}

		hasNetwork, netErr := eng.NetworkExists(ctx, network)
		proxyUp, proxyErr := eng.ContainerRunning(ctx, proxyContainer)
		_ = eng.Close()

		if netErr != nil || proxyErr != nil {
			logger.Warn("probe failed, failing both checks",
				"network_error", netErr, "proxy_error", proxyErr)
			report.MissingNetwork = append(report.MissingNetwork, host)
			report.MissingProxy = append(report.MissingProxy, host)
			continue
		}

		if !hasNetwork {
			logger.Warn("project network missing", "network", network)
			report.MissingNetwork = append(report.MissingNetwork, host)
		}
		if !proxyUp {
			logger.Warn("proxy sidecar not running", "container", proxyContainer)
			report.MissingProxy = append(report.MissingProxy, host)
		}
	}

	return report
}
