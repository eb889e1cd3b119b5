// Package proxy builds the configuration commands and public URLs for the
// reverse-proxy sidecar. Pure construction only; execution lives in the
// shell layer.
package proxy

import "fmt"

// =============================================================================
// Sidecar Command Construction
// =============================================================================

// Route names one external hostname routed into the project network.
type Route struct {
	Hostname string
	// Alias is the stable in-network name of the app, independent of the
	// current container's identity.
	Alias string
	// Port is the app's container port behind the alias.
	Port int
	// Project scopes the route so identically named apps in different
	// projects never collide.
	Project string
}

// Target returns the alias:port pair the proxy forwards to.
func (r Route) Target() string {
	return fmt.Sprintf("%s:%d", r.Alias, r.Port)
}

// RegisterArgs builds the argument vector executed inside the sidecar to
// install one route. The sidecar protocol only signals success or failure;
// no structured diagnostics are assumed.
//
// Example:
//
//	RegisterArgs(Route{Hostname: "example.com", Alias: "web", Port: 80, Project: "acme"})
//	// returns ["register", "-host", "example.com", "-target", "web:80", "-project", "acme"]
func RegisterArgs(r Route) []string {
	return []string{
		"register",
		"-host", r.Hostname,
		"-target", r.Target(),
		"-project", r.Project,
	}
}

// URL returns the externally reachable address for a configured route.
// Reported at the end of a run for successfully proxied apps only.
func URL(hostname string) string {
	return fmt.Sprintf("https://%s", hostname)
}
