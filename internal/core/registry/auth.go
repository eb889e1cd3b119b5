// Package registry resolves which image registry and credentials a deploy
// operation uses, and classifies login output.
package registry

import (
	"strings"

	"github.com/drydock-sh/drydock/internal/core/config"
)

// DefaultRegistry is the public registry assumed when neither the entry nor
// the project configures one. Pulls against it are anonymous.
const DefaultRegistry = "docker.io"

// =============================================================================
// Credential Resolution
// =============================================================================

// Auth is a resolved registry target. Anonymous is true when no credential
// pair applies, in which case login/logout are skipped entirely.
type Auth struct {
	Registry  string
	Username  string
	Password  string
	Anonymous bool
}

// Resolve picks the effective registry and credential pair with strict
// precedence, first match wins, no merging:
//
//  1. entry-level registry with its own secret reference
//  2. project-level registry with the project password secret
//  3. the default public registry, no credentials
//
// A configured password secret missing from the secret map resolves to an
// empty password rather than falling through to the next level; precedence
// is by configuration shape, not by secret availability.
func Resolve(entry *config.Registry, project config.Registry, secrets map[string]string) Auth {
	if entry != nil && entry.URL != "" {
		return Auth{
			Registry: entry.URL,
			Username: entry.Username,
			Password: secrets[entry.PasswordSecret],
		}
	}
	if project.URL != "" {
		return Auth{
			Registry: project.URL,
			Username: project.Username,
			Password: secrets[project.PasswordSecret],
		}
	}
	return Auth{Registry: DefaultRegistry, Anonymous: true}
}

// =============================================================================
// Login Output Classification
// =============================================================================

// unencryptedNotice is the substring Docker prints when it stores the
// credential in plaintext. It arrives on stderr and makes the login look
// failed even though it succeeded.
const unencryptedNotice = "stored unencrypted"

// LoginSucceeded decides whether a login attempt actually succeeded.
// A run whose only anomaly is the unencrypted-credential-store notice is a
// success; anything else on a non-nil error is a failure.
func LoginSucceeded(runErr error, output string) bool {
	if runErr == nil {
		return true
	}
	return strings.Contains(output, unencryptedNotice)
}
