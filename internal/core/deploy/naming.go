package deploy

import (
	"fmt"

	"github.com/drydock-sh/drydock/internal/core/release"
)

// =============================================================================
// Release Naming Functions
// =============================================================================

// AppContainerName generates the container name for an app release.
// Pattern: {app}-{releaseID}. A new identity per release is what lets the
// previous and candidate containers coexist during cutover.
//
// Example:
//
//	AppContainerName("web", "20260831142501-9f3c2a1b")
//	// returns "web-20260831142501-9f3c2a1b"
func AppContainerName(app string, id release.ID) string {
	return fmt.Sprintf("%s-%s", app, id)
}

// ServiceContainerName generates the container name for a service.
// Services keep a single stable identity and are replaced in place.
func ServiceContainerName(service string) string {
	return service
}

// ReleaseImageRef generates the image reference an app release is tagged,
// pushed, and pulled as. Pattern: {image}:{releaseID}.
func ReleaseImageRef(image string, id release.ID) string {
	return fmt.Sprintf("%s:%s", image, id)
}

// NetworkAlias returns the stable routing name for an app inside the project
// network. The alias, not the container name, is what the proxy targets, so
// it never changes across releases.
func NetworkAlias(app string) string {
	return app
}
