package browser

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedEngine = errors.New("unsupported browser engine")
	ErrLaunch            = errors.New("browser launch failed")
	ErrNavigation        = errors.New("navigation failed")
	ErrSessionClosed     = errors.New("browser session closed")
	ErrPageClosed        = errors.New("page session closed")
	ErrNoPage            = errors.New("there are no pages in the browser context")
)

// UnsupportedEngineError is returned when a launch names an unknown engine.
type UnsupportedEngineError struct {
	Engine EngineType
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported browser engine %q (expected one of %v)", e.Engine, Engines)
}

func (e *UnsupportedEngineError) Is(target error) bool {
	return target == ErrUnsupportedEngine
}

// LaunchError wraps the reason a browser engine could not start.
type LaunchError struct {
	Engine EngineType
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Engine, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunch
}

// NavigationError is a hard navigation failure: the request itself failed.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

func (e *NavigationError) Is(target error) bool {
	return target == ErrNavigation
}

// LoadStateWarning is the soft outcome of a load-state wait that did not
// finish in time. It is reported, never returned as an error.
type LoadStateWarning struct {
	State   string
	Timeout time.Duration
	Err     error
}

func (w *LoadStateWarning) Error() string {
	return fmt.Sprintf("page is not fully loaded with load state %s after %d milliseconds: %v",
		w.State, w.Timeout.Milliseconds(), w.Err)
}

func (w *LoadStateWarning) Unwrap() error {
	return w.Err
}
