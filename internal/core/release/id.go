// Package release generates and compares release identifiers.
//
// A release id stamps every app image tag and app container name produced by
// one deploy run. Ids are time-ordered: lexicographic comparison of two ids
// matches the order in which their runs started.
package release

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// timeLayout is the timestamp half of a release id.
// Fixed-width so that string comparison preserves time order.
const timeLayout = "20060102150405"

// suffixLen is the number of uuid characters appended for uniqueness across
// processes that mint ids in the same second.
const suffixLen = 8

var idPattern = regexp.MustCompile(`^\d{14}-[0-9a-f]{8}$`)

// ID is a release identifier, e.g. "20260831142501-9f3c2a1b".
type ID string

var (
	genMu      sync.Mutex
	lastSecond time.Time
)

// New returns a fresh release id for a run starting now. Successive calls in
// one process yield strictly increasing ids even within the same wall-clock
// second: the timestamp half advances by at least one second per call.
func New() ID {
	genMu.Lock()
	defer genMu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	if !now.After(lastSecond) {
		now = lastSecond.Add(time.Second)
	}
	lastSecond = now
	return NewAt(now)
}

// NewAt returns a release id anchored to the given instant.
func NewAt(t time.Time) ID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return ID(fmt.Sprintf("%s-%s", t.UTC().Format(timeLayout), suffix))
}

// Parse validates a release id string.
func Parse(s string) (ID, error) {
	if !idPattern.MatchString(s) {
		return "", fmt.Errorf("invalid release id %q", s)
	}
	return ID(s), nil
}

// String returns the id as a plain string.
func (id ID) String() string {
	return string(id)
}

// Time returns the instant the release was created, truncated to the second.
func (id ID) Time() (time.Time, error) {
	parts := strings.SplitN(string(id), "-", 2)
	return time.Parse(timeLayout, parts[0])
}

// Compare orders two release ids. It returns -1 if a is older than b,
// +1 if newer, and 0 if equal.
func Compare(a, b ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
