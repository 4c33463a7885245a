package suite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/pagekit/pkg/execution"
)

// Default values for the runner
const (
	DefaultTestTimeout = 5 * time.Minute

	// forcedCleanupGrace bounds how long a timed-out test body may keep
	// running after its contexts were closed.
	forcedCleanupGrace = 10 * time.Second
)

// ErrTestTimeout is reported for tests that outlived their timeout.
var ErrTestTimeout = errors.New("test timed out")

// Func is a test body.
type Func func(t *T) error

// Test is one named test.
type Test struct {
	Name    string
	Run     Func
	Timeout time.Duration
}

// Result is the outcome of one test.
type Result struct {
	Name     string
	Worker   execution.WorkerID
	Err      error
	Duration time.Duration
}

// Passed reports whether the test succeeded.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Report collects the results of a run in test order.
type Report struct {
	Results []Result
}

// Failed returns the failed results.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Run executes tests across the configured number of workers. Each worker
// launches its own browser, runs tests one at a time and closes the browser
// when the queue is drained. Test failures are reported in the Report; the
// returned error is only set when a worker could not start.
func (s *Suite) Run(ctx context.Context, tests []Test) (*Report, error) {
	report := &Report{Results: make([]Result, len(tests))}
	if len(tests) == 0 {
		return report, nil
	}

	workers := s.cfg.Threads
	if workers < 1 {
		workers = 1
	}
	if workers > len(tests) {
		workers = len(tests)
	}

	type job struct {
		index int
		test  Test
	}
	queue := make(chan job)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for i, t := range tests {
			select {
			case queue <- job{index: i, test: t}:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	var mu sync.Mutex
	for w := 1; w <= workers; w++ {
		worker := execution.WorkerID(w)
		g.Go(func() error {
			if err := s.OnSuiteStart(gctx, worker); err != nil {
				return err
			}
			defer s.OnSuiteEnd(gctx, worker)

			for j := range queue {
				res := s.runTest(gctx, worker, j.test)
				mu.Lock()
				report.Results[j.index] = res
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()

	// Tests that never ran because a worker failed to start
	for i, res := range report.Results {
		if res.Name == "" {
			report.Results[i] = Result{Name: tests[i].Name, Err: fmt.Errorf("not run: %w", context.Canceled)}
		}
	}
	return report, err
}

func (s *Suite) runTest(ctx context.Context, worker execution.WorkerID, test Test) Result {
	start := time.Now()
	res := Result{Name: test.Name, Worker: worker}

	timeout := test.Timeout
	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t, err := s.OnTestStart(tctx, worker, test.Name)
	if err != nil {
		res.Err = err
		s.OnTestEnd(ctx, worker, test.Name, true)
		res.Duration = time.Since(start)
		return res
	}

	done := make(chan error, 1)
	go func() {
		done <- runBody(test, t)
	}()

	select {
	case res.Err = <-done:
		s.OnTestEnd(ctx, worker, test.Name, res.Err != nil)
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("test %s interrupted: %w", test.Name, err)
		} else {
			res.Err = fmt.Errorf("%w after %s: %v", ErrTestTimeout, timeout, tctx.Err())
		}
		// Closing the contexts unblocks whatever the body is waiting on.
		s.OnTestEnd(ctx, worker, test.Name, true)
		select {
		case <-done:
		case <-time.After(forcedCleanupGrace):
			t.Logger().Errorf("test %s did not stop after forced cleanup", test.Name)
		}
	}

	res.Duration = time.Since(start)
	return res
}

func runBody(test Test, t *T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("test %s panicked: %v", test.Name, r)
		}
	}()
	if test.Run == nil {
		return fmt.Errorf("test %s has no body", test.Name)
	}
	return test.Run(t)
}
