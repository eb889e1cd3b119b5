// Package store persists release history on the operator machine. History
// is advisory: a store failure never changes a deploy outcome.
package store

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// Types
// =============================================================================

// Run is one recorded deploy invocation.
type Run struct {
	ReleaseID  string    `db:"release_id"`
	Project    string    `db:"project"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Clean      bool      `db:"clean"`
}

// Outcome is one recorded (entry, server) result within a run.
type Outcome struct {
	ID         int64  `db:"id"`
	ReleaseID  string `db:"release_id"`
	Kind       string `db:"kind"`
	Target     string `db:"target"`
	Server     string `db:"server"`
	State      string `db:"state"`
	Error      string `db:"error"`
	DurationMS int64  `db:"duration_ms"`
}

// =============================================================================
// Store Interface
// =============================================================================

// Store records and queries release history.
type Store interface {
	// SaveRun persists a run and its outcomes atomically.
	SaveRun(ctx context.Context, run Run, outcomes []Outcome) error
	// ListRuns returns runs newest-first, optionally filtered to a target
	// name, up to limit.
	ListRuns(ctx context.Context, target string, limit int) ([]Run, error)
	// ListOutcomes returns the outcomes of one run.
	ListOutcomes(ctx context.Context, releaseID string) ([]Outcome, error)
	Close() error
}

// =============================================================================
// Errors
// =============================================================================

var (
	ErrConnectionFailed = errors.New("store connection failed")
	ErrMigrationFailed  = errors.New("store migration failed")
)
