package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_Target(t *testing.T) {
	r := Route{Alias: "web", Port: 8080}
	assert.Equal(t, "web:8080", r.Target())
}

func TestRegisterArgs(t *testing.T) {
	args := RegisterArgs(Route{
		Hostname: "www.acme.com",
		Alias:    "web",
		Port:     8080,
		Project:  "acme",
	})
	assert.Equal(t, []string{
		"register",
		"-host", "www.acme.com",
		"-target", "web:8080",
		"-project", "acme",
	}, args)
}

func TestRegisterArgs_TargetUsesAliasNotContainerName(t *testing.T) {
	// Routes point at the stable network alias, so a route installed for
	// one release keeps working after the next cutover.
	args := RegisterArgs(Route{Hostname: "acme.com", Alias: "web", Port: 80, Project: "acme"})
	assert.Contains(t, args, "web:80")
}

func TestURL(t *testing.T) {
	assert.Equal(t, "https://www.acme.com", URL("www.acme.com"))
}
