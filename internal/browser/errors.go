package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrExecutableNotFound means no browser binary was found and the
	// interactive prompt was declined or cancelled.
	ErrExecutableNotFound = errors.New("browser executable not found")

	// ErrPortInUse is matched by *PortInUseError.
	ErrPortInUse = errors.New("debug port in use")

	// ErrProfileNotFound is matched by *ProfileNotFoundError.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrConnect is matched by *ConnectError.
	ErrConnect = errors.New("connect failed")

	// ErrInvalidProfileName is returned for names that are not a single
	// path element.
	ErrInvalidProfileName = errors.New("invalid profile name")

	// ErrProfileLocked means another manager holds the profile.
	ErrProfileLocked = errors.New("profile is locked by another session")

	// ErrInvalidState is returned when an operation is not allowed in the
	// manager's current state.
	ErrInvalidState = errors.New("invalid manager state")

	// ErrSessionClosed is returned by page operations after teardown.
	ErrSessionClosed = errors.New("session is closed")
)

// PortInUseError is returned before launch when the debug port is busy.
type PortInUseError struct {
	Port int
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("port %d is in use, choose another port", e.Port)
}

func (e *PortInUseError) Is(target error) bool { return target == ErrPortInUse }

// ProfileNotFoundError is returned when connecting to a profile whose
// directory was never created.
type ProfileNotFoundError struct {
	Name string
	Path string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %q does not exist at %s, create it first", e.Name, e.Path)
}

func (e *ProfileNotFoundError) Is(target error) bool { return target == ErrProfileNotFound }

// ConnectError wraps any failure while binding the automation client.
// By the time it is returned the session has been torn down.
type ConnectError struct {
	Port int
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to browser on port %d: %v", e.Port, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

func (e *ConnectError) Is(target error) bool { return target == ErrConnect }
