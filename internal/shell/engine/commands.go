package engine

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Docker CLI Command Construction
// =============================================================================
//
// The remote engine drives the docker CLI over SSH. Commands are assembled
// here as argument vectors and joined with shell quoting, so the remote shell
// never interprets user-controlled values.

// shellQuote wraps a value in single quotes, escaping embedded quotes.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$\\&|;<>()*?[]#~%!{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// joinCommand quotes each argument and joins them into one shell command.
func joinCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// sortedKeys returns map keys in deterministic order so assembled commands
// are stable across runs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func networkExistsCommand(name string) string {
	return joinCommand([]string{"docker", "network", "inspect", "--format", "{{.Name}}", name})
}

func containerRunningCommand(name string) string {
	return joinCommand([]string{"docker", "inspect", "--format", "{{.State.Running}}", name})
}

func loginCommand(registry, username string) string {
	return joinCommand([]string{"docker", "login", registry, "--username", username, "--password-stdin"})
}

func logoutCommand(registry string) string {
	return joinCommand([]string{"docker", "logout", registry})
}

func pullCommand(ref string) string {
	return joinCommand([]string{"docker", "pull", ref})
}

func runCommand(spec ContainerSpec) string {
	args := []string{"docker", "run", "--detach", "--name", spec.Name}

	restart := spec.Restart
	if restart == "" {
		restart = "unless-stopped"
	}
	args = append(args, "--restart", restart)

	if spec.Network != "" {
		args = append(args, "--network", spec.Network)
	}
	if spec.NetworkAlias != "" {
		args = append(args, "--network-alias", spec.NetworkAlias)
	}
	for _, p := range spec.Ports {
		args = append(args, "--publish", p)
	}
	for _, v := range spec.Volumes {
		args = append(args, "--volume", v)
	}
	for _, k := range sortedKeys(spec.Env) {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, spec.Env[k]))
	}
	for _, k := range sortedKeys(spec.Labels) {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, spec.Labels[k]))
	}

	args = append(args, spec.Image)
	return joinCommand(args)
}

func stopCommand(name string) string {
	return joinCommand([]string{"docker", "stop", name})
}

func removeCommand(name string) string {
	return joinCommand([]string{"docker", "rm", name})
}

func listByLabelCommand(labels map[string]string) string {
	args := []string{"docker", "ps", "--all", "--format", "{{.Names}}"}
	for _, k := range sortedKeys(labels) {
		args = append(args, "--filter", fmt.Sprintf("label=%s=%s", k, labels[k]))
	}
	return joinCommand(args)
}

func healthCommand(name string) string {
	return joinCommand([]string{
		"docker", "inspect", "--format",
		"{{if .State.Health}}{{.State.Health.Status}}{{end}}", name,
	})
}

func containerIPCommand(name, network string) string {
	format := fmt.Sprintf("{{(index .NetworkSettings.Networks %q).IPAddress}}", network)
	return joinCommand([]string{"docker", "inspect", "--format", format, name})
}

func httpProbeCommand(url string) string {
	return joinCommand([]string{"curl", "--fail", "--silent", "--show-error",
		"--max-time", "5", "--output", "/dev/null", url})
}

func execCommand(container string, cmd []string) string {
	args := append([]string{"docker", "exec", container}, cmd...)
	return joinCommand(args)
}

func pruneCommand() string {
	return joinCommand([]string{"docker", "system", "prune", "--force"})
}
