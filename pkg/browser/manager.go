package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagekit/pkg/logging"
)

// chromiumDefaultArgs are always passed to Chromium launches.
var chromiumDefaultArgs = []string{
	"--disable-setuid-sandbox",
	"--no-sandbox",
	"--webview-log-js-console-messages",
}

// BrowserSession is one running engine process plus the browser it launched.
// A session belongs to a single worker and is never shared.
type BrowserSession struct {
	ID         string
	Engine     EngineType
	Headless   bool
	Args       []string
	Browser    playwright.Browser
	LaunchedAt time.Time

	driver Driver

	mu     sync.Mutex
	closed bool
}

// Closed reports whether CloseAll already ran for this session.
func (s *BrowserSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SessionManager launches and tears down browser sessions.
type SessionManager struct {
	newDriver DriverFactory
	logger    *logging.Logger
}

// ManagerOption configures a SessionManager.
type ManagerOption func(*SessionManager)

// WithDriverFactory replaces the Playwright driver factory.
func WithDriverFactory(f DriverFactory) ManagerOption {
	return func(m *SessionManager) {
		m.newDriver = f
	}
}

// WithLogger sets the logger used for launch and teardown messages.
func WithLogger(l *logging.Logger) ManagerOption {
	return func(m *SessionManager) {
		m.logger = l
	}
}

// NewSessionManager creates a session manager backed by Playwright.
func NewSessionManager(opts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		newDriver: PlaywrightDriver,
		logger:    logging.Discard("browser"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Launch starts a fresh engine process and launches the requested browser.
//
// Chromium launches always carry the sandbox and console flags; caller args
// override a default with the same flag name. On any failure the driver is
// stopped before returning, so no process is leaked.
func (m *SessionManager) Launch(ctx context.Context, engine EngineType, headless bool, args []string) (*BrowserSession, error) {
	if !engine.Valid() {
		return nil, &UnsupportedEngineError{Engine: engine}
	}
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Engine: engine, Err: err}
	}

	driver, err := m.newDriver()
	if err != nil {
		return nil, &LaunchError{Engine: engine, Err: err}
	}

	bt, err := driver.BrowserType(engine)
	if err != nil {
		m.stopDriver(driver)
		return nil, &LaunchError{Engine: engine, Err: err}
	}

	merged := launchArgs(engine, args)
	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     merged,
	})
	if err != nil {
		m.stopDriver(driver)
		return nil, &LaunchError{Engine: engine, Err: err}
	}

	session := &BrowserSession{
		ID:         uuid.New().String(),
		Engine:     engine,
		Headless:   headless,
		Args:       merged,
		Browser:    browser,
		LaunchedAt: time.Now(),
		driver:     driver,
	}
	m.logger.Infof("launched %s (headless=%t) session %s", engine, headless, session.ID)
	return session, nil
}

// CloseAll closes every context of the session, then the browser, then the
// engine process. Each step is best effort: failures are logged and the
// remaining steps still run. Calling it again is a no-op.
func (m *SessionManager) CloseAll(session *BrowserSession) {
	if session == nil {
		return
	}

	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return
	}
	session.closed = true
	session.mu.Unlock()

	if session.Browser != nil {
		for _, bc := range session.Browser.Contexts() {
			if bc == nil {
				continue
			}
			if err := bc.Close(); err != nil {
				m.logger.Warnf("session %s: failed to close browser context: %v", session.ID, err)
			}
		}
		if err := session.Browser.Close(); err != nil {
			m.logger.Warnf("session %s: failed to close browser: %v", session.ID, err)
		}
	}

	m.stopDriver(session.driver)
	m.logger.Infof("closed session %s", session.ID)
}

// CloseContexts closes every browser context but keeps the browser running.
func (m *SessionManager) CloseContexts(session *BrowserSession) {
	if session == nil || session.Browser == nil || session.Closed() {
		return
	}
	for _, bc := range session.Browser.Contexts() {
		if bc == nil {
			continue
		}
		if err := bc.Close(); err != nil {
			m.logger.Warnf("session %s: failed to close browser context: %v", session.ID, err)
		}
	}
}

// Healthy reports whether the session's browser is still connected.
func (m *SessionManager) Healthy(session *BrowserSession) bool {
	if session == nil || session.Browser == nil || session.Closed() {
		return false
	}
	return session.Browser.IsConnected()
}

func (m *SessionManager) stopDriver(d Driver) {
	if d == nil {
		return
	}
	if err := d.Stop(); err != nil {
		m.logger.Warnf("failed to stop playwright driver: %v", err)
	}
}

func launchArgs(engine EngineType, extra []string) []string {
	var base []string
	if engine == Chromium {
		base = chromiumDefaultArgs
	}
	return mergeArgs(base, extra)
}

// mergeArgs appends extra to base. An extra arg whose flag name is already
// present replaces it in place; blank args are dropped.
func mergeArgs(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	index := make(map[string]int, len(base)+len(extra))

	add := func(arg string) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return
		}
		name, _, _ := strings.Cut(arg, "=")
		if i, ok := index[name]; ok {
			out[i] = arg
			return
		}
		index[name] = len(out)
		out = append(out, arg)
	}

	for _, a := range base {
		add(a)
	}
	for _, a := range extra {
		add(a)
	}
	return out
}
