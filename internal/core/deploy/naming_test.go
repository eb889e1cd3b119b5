package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drydock-sh/drydock/internal/core/release"
)

// =============================================================================
// AppContainerName Tests
// =============================================================================

func TestAppContainerName_Simple(t *testing.T) {
	got := AppContainerName("web", release.ID("20260831142501-9f3c2a1b"))
	assert.Equal(t, "web-20260831142501-9f3c2a1b", got)
}

func TestAppContainerName_WithHyphen(t *testing.T) {
	got := AppContainerName("my-api", release.ID("20260831142501-9f3c2a1b"))
	assert.Equal(t, "my-api-20260831142501-9f3c2a1b", got)
}

func TestAppContainerName_UniquePerRelease(t *testing.T) {
	a := AppContainerName("web", release.ID("20260831142501-9f3c2a1b"))
	b := AppContainerName("web", release.ID("20260831142502-0a1b2c3d"))
	assert.NotEqual(t, a, b)
}

// =============================================================================
// ServiceContainerName Tests
// =============================================================================

func TestServiceContainerName_Stable(t *testing.T) {
	assert.Equal(t, "postgres", ServiceContainerName("postgres"))
}

// =============================================================================
// ReleaseImageRef Tests
// =============================================================================

func TestReleaseImageRef_Simple(t *testing.T) {
	got := ReleaseImageRef("registry.example.com/acme/web", release.ID("20260831142501-9f3c2a1b"))
	assert.Equal(t, "registry.example.com/acme/web:20260831142501-9f3c2a1b", got)
}

func TestReleaseImageRef_BareImage(t *testing.T) {
	got := ReleaseImageRef("web", release.ID("20260831142501-9f3c2a1b"))
	assert.Equal(t, "web:20260831142501-9f3c2a1b", got)
}

// =============================================================================
// NetworkAlias Tests
// =============================================================================

func TestNetworkAlias_MatchesAppName(t *testing.T) {
	assert.Equal(t, "web", NetworkAlias("web"))
}

func TestNetworkAlias_StableAcrossReleases(t *testing.T) {
	// The alias carries no release component, so the proxy target never
	// changes across deploys.
	assert.Equal(t, NetworkAlias("web"), NetworkAlias("web"))
}
