// Package wait provides the blocking condition poller used by page objects
// to wait on asynchronous UI state.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default values for polling
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 300 * time.Millisecond
)

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("condition not met")

// TimeoutError is returned when a condition stays false for the whole budget.
type TimeoutError struct {
	Message string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s after %d milliseconds", e.Message, e.Timeout.Milliseconds())
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Condition is a zero-argument predicate. It may touch the UI.
type Condition func() bool

// Poller evaluates a condition at a fixed interval until it holds or the
// timeout budget is spent.
type Poller struct {
	// Interval is the time slept between two evaluations
	Interval time.Duration

	// sleep blocks for d or until ctx is done; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller with the given interval.
// A non-positive interval falls back to DefaultPollInterval.
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		Interval: interval,
		sleep:    sleepContext,
	}
}

// Until blocks until cond returns true.
//
// cond is evaluated immediately. While it is false the poller sleeps for
// Interval, subtracts Interval from the remaining budget and fails with a
// *TimeoutError as soon as the budget reaches zero; otherwise it evaluates
// again. The call therefore returns within [timeout, timeout+Interval).
//
// ctx is only consulted while sleeping; cancelling it is how an outer test
// deadline aborts the wait.
func (p *Poller) Until(ctx context.Context, cond Condition, timeout time.Duration, message string) error {
	if cond == nil {
		return fmt.Errorf("wait: nil condition")
	}

	remaining := timeout
	for !cond() {
		if err := p.sleep(ctx, p.Interval); err != nil {
			return fmt.Errorf("wait for %q interrupted: %w", message, err)
		}
		remaining -= p.Interval
		if remaining <= 0 {
			return &TimeoutError{Message: message, Timeout: timeout}
		}
	}
	return nil
}

// UntilDefault is Until with DefaultTimeout.
func (p *Poller) UntilDefault(ctx context.Context, cond Condition, message string) error {
	return p.Until(ctx, cond, DefaultTimeout, message)
}

var defaultPoller = NewPoller(DefaultPollInterval)

// Until waits for cond using the default 300ms poll interval.
func Until(ctx context.Context, cond Condition, timeout time.Duration, message string) error {
	return defaultPoller.Until(ctx, cond, timeout, message)
}

// UntilDefault waits for cond with the suite-wide 30s timeout.
func UntilDefault(ctx context.Context, cond Condition, message string) error {
	return defaultPoller.UntilDefault(ctx, cond, message)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		time.Sleep(d)
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
