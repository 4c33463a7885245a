// Package suite wires browser sessions, page sessions and page objects into
// per-worker lifecycle hooks and runs tests across a pool of workers.
package suite

import (
	"context"
	"fmt"
	"sync"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/config"
	"github.com/entrhq/pagekit/pkg/diagnostics"
	"github.com/entrhq/pagekit/pkg/execution"
	"github.com/entrhq/pagekit/pkg/logging"
	"github.com/entrhq/pagekit/pkg/pages"
)

// DiagnosticHook runs when a test failed, before its pages are closed.
type DiagnosticHook func(ctx context.Context, ec *execution.Context, testName string)

// CaptureHook adapts a diagnostics capturer into a DiagnosticHook.
func CaptureHook(c *diagnostics.Capturer) DiagnosticHook {
	return func(ctx context.Context, ec *execution.Context, testName string) {
		// Capture logs every failure itself
		_, _ = c.Capture(ec.Session, testName)
	}
}

// Suite owns the lifecycle of every worker's browser session.
type Suite struct {
	cfg        *config.Suite
	sessions   *browser.SessionManager
	controller *browser.PageController
	registry   *execution.Registry
	resolver   *pages.Resolver
	diagnostic DiagnosticHook
	timeouts   browser.Timeouts
	logger     *logging.Logger

	open sync.Map // WorkerID -> *browser.PageSession of the running test
}

// Option configures a Suite.
type Option func(*Suite)

// WithSessionManager replaces the default Playwright session manager.
func WithSessionManager(m *browser.SessionManager) Option {
	return func(s *Suite) { s.sessions = m }
}

// WithRegistry shares an existing execution registry.
func WithRegistry(r *execution.Registry) Option {
	return func(s *Suite) { s.registry = r }
}

// WithResolver sets the page resolver tests open pages with.
func WithResolver(r *pages.Resolver) Option {
	return func(s *Suite) { s.resolver = r }
}

// WithDiagnosticHook sets the hook run for failed tests.
func WithDiagnosticHook(h DiagnosticHook) Option {
	return func(s *Suite) { s.diagnostic = h }
}

// WithTimeouts overrides the page timeouts.
func WithTimeouts(t browser.Timeouts) Option {
	return func(s *Suite) { s.timeouts = t }
}

// WithLogger sets the suite logger. Worker loggers are scoped children.
func WithLogger(l *logging.Logger) Option {
	return func(s *Suite) { s.logger = l }
}

// New creates a suite for cfg.
func New(cfg *config.Suite, opts ...Option) *Suite {
	s := &Suite{
		cfg:      cfg,
		registry: execution.NewRegistry(),
		timeouts: browser.DefaultTimeouts(),
		logger:   logging.Discard("suite"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = browser.NewSessionManager(browser.WithLogger(s.logger))
	}
	if s.controller == nil {
		s.controller = browser.NewPageController(s.logger)
	}
	return s
}

// Registry returns the execution registry of the suite.
func (s *Suite) Registry() *execution.Registry {
	return s.registry
}

// OnSuiteStart launches the worker's browser and binds its execution context.
func (s *Suite) OnSuiteStart(ctx context.Context, worker execution.WorkerID) error {
	session, err := s.sessions.Launch(ctx, s.cfg.Engine, s.cfg.Headless, s.cfg.Args)
	if err != nil {
		return fmt.Errorf("%s: %w", worker, err)
	}

	ec := execution.New(worker, s.cfg.BaseURL, s.cfg.BackOfficeURL, session)
	ec.Logger = s.logger.With(worker.String())
	if err := s.registry.Init(worker, ec); err != nil {
		s.sessions.CloseAll(session)
		return err
	}

	ec.Logger.Infof("suite started on %s (headless=%t)", session.Engine, session.Headless)
	return nil
}

// OnTestStart opens a fresh page for the test. A worker whose browser has
// disconnected gets a new one first.
func (s *Suite) OnTestStart(ctx context.Context, worker execution.WorkerID, name string) (*T, error) {
	ec, err := s.registry.Get(worker)
	if err != nil {
		return nil, err
	}

	if !s.sessions.Healthy(ec.Session) {
		if err := s.relaunch(ctx, ec); err != nil {
			return nil, err
		}
	}

	ec.Logger.Infof("Test started: %s", name)

	ps, err := s.controller.Open(ec.Session, s.cfg.Viewport, s.timeouts)
	if err != nil {
		return nil, fmt.Errorf("open page for %s: %w", name, err)
	}
	s.open.Store(worker, ps)

	return &T{
		ctx:      execution.WithContext(ctx, ec),
		name:     name,
		exec:     ec,
		page:     browser.NewPageContext(ps, s.controller),
		resolver: s.resolver,
	}, nil
}

func (s *Suite) relaunch(ctx context.Context, ec *execution.Context) error {
	ec.Logger.Warnf("browser session %s is no longer connected, relaunching", sessionID(ec.Session))
	s.sessions.CloseAll(ec.Session)

	session, err := s.sessions.Launch(ctx, s.cfg.Engine, s.cfg.Headless, s.cfg.Args)
	if err != nil {
		return err
	}
	if _, err := s.registry.ReplaceSession(ec.Worker, session); err != nil {
		s.sessions.CloseAll(session)
		return err
	}
	return nil
}

// OnTestEnd runs the diagnostic hook for failed tests, closes the test's
// page session and then sweeps every context left in the worker's browser.
// The diagnostic hook only runs when the test got a page. It never fails.
func (s *Suite) OnTestEnd(ctx context.Context, worker execution.WorkerID, name string, hasFailure bool) {
	ec, err := s.registry.Get(worker)
	if err != nil {
		s.logger.Warnf("test end for %s: %v", name, err)
		return
	}

	var ps *browser.PageSession
	if v, ok := s.open.LoadAndDelete(worker); ok {
		ps = v.(*browser.PageSession)
	}

	switch {
	case !hasFailure:
		ec.Logger.Infof("Test passed: %s", name)
	case ps == nil:
		ec.Logger.Errorf("Test failed before its page was opened: %s", name)
	default:
		ec.Logger.Errorf("Test failed: %s", name)
		if s.diagnostic != nil {
			s.diagnostic(ctx, ec, name)
		}
	}

	s.controller.Close(ps)
	s.sessions.CloseContexts(ec.Session)
}

// OnSuiteEnd closes the worker's browser and engine and unbinds its context.
func (s *Suite) OnSuiteEnd(ctx context.Context, worker execution.WorkerID) {
	if v, ok := s.open.LoadAndDelete(worker); ok {
		s.controller.Close(v.(*browser.PageSession))
	}

	ec, ok := s.registry.Clear(worker)
	if !ok {
		return
	}
	s.sessions.CloseAll(ec.Session)
	ec.Logger.Infof("suite finished")
}

func sessionID(session *browser.BrowserSession) string {
	if session == nil {
		return "<nil>"
	}
	return session.ID
}
