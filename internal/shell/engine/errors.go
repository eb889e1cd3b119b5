package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrContainerNotFound = errors.New("container not found")
	ErrNetworkNotFound   = errors.New("network not found")
	ErrImagePullFailed   = errors.New("image pull failed")
	ErrLoginFailed       = errors.New("registry login failed")
	ErrBuildFailed       = errors.New("image build failed")
	ErrPushFailed        = errors.New("image push failed")
	ErrConnectionFailed  = errors.New("engine connection failed")
)

// EngineError wraps engine failures with the operation, host, and subject.
type EngineError struct {
	Op      string // Operation that failed
	Host    string // Host the operation ran on, "" for local
	Subject string // Container, image, or network name
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	switch {
	case e.Host != "" && e.Subject != "":
		return fmt.Sprintf("%s %s on %s: %s", e.Op, e.Subject, e.Host, e.Message)
	case e.Subject != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Subject, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, host, subject, message string, err error) *EngineError {
	return &EngineError{
		Op:      op,
		Host:    host,
		Subject: subject,
		Message: message,
		Err:     err,
	}
}
