package domain

import (
	"errors"
	"fmt"
	"runtime"
)

// Error classes. Every failure produced below the dispatcher wraps one of these.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBadRequest           = errors.New("bad request")
	ErrNotRunning           = errors.New("service not running")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrActionFailed         = errors.New("action failed")
	ErrNotFound             = errors.New("not found")
	ErrTimeout              = errors.New("timeout")
	ErrCancelled            = errors.New("cancelled")
	ErrInternal             = errors.New("internal error")
)

// OperationError carries a user-facing message while still matching its class with errors.Is
type OperationError struct {
	Kind    error
	Message string
}

// Error returns the user-facing message only
func (e *OperationError) Error() string {
	return e.Message
}

// Unwrap exposes the error class
func (e *OperationError) Unwrap() error {
	return e.Kind
}

// Errorf builds an OperationError of the given class
func Errorf(kind error, format string, args ...any) error {
	return &OperationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Classify returns the error class of err, or ErrInternal when it has none
func Classify(err error) error {
	for _, kind := range []error{
		ErrUnauthorized, ErrBadRequest, ErrNotRunning, ErrUnsupportedOperation,
		ErrActionFailed, ErrNotFound, ErrTimeout, ErrCancelled,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// PortCollisionError is returned when no port in the configured range could be bound
type PortCollisionError struct {
	BasePort int
	Attempts int
}

// Error implements the error interface
func (e *PortCollisionError) Error() string {
	last := e.BasePort + e.Attempts - 1
	return fmt.Sprintf(`✗ Error: ports %d-%d are already in use

  The command server could not bind any port in its range.

  To resolve this:
  1. Find the process holding the base port:
     %s

  2. Stop the conflicting process, or

  3. Configure a different base port in .operator/config.yaml:
     server:
       port: <new-port>`, e.BasePort, last, getPortCheckCommand(e.BasePort))
}

// getPortCheckCommand returns the platform-specific command to check port usage
func getPortCheckCommand(port int) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("netstat -ano | findstr :%d", port)
	}
	return fmt.Sprintf("lsof -ti:%d", port)
}
