package browser

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagekit/pkg/logging"
)

// PageSession is one isolated browser context with a single page.
type PageSession struct {
	ID        string
	Viewport  Viewport
	Timeouts  Timeouts
	Context   playwright.BrowserContext
	Page      playwright.Page
	CreatedAt time.Time

	mu         sync.Mutex
	state      PageState
	currentURL string
}

// State returns the lifecycle state of the page session.
func (ps *PageSession) State() PageState {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.state
}

// CurrentURL returns the URL the page was last navigated to.
func (ps *PageSession) CurrentURL() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.currentURL
}

func (ps *PageSession) setState(s PageState) {
	ps.mu.Lock()
	ps.state = s
	ps.mu.Unlock()
}

// NavigationResult is the outcome of a navigation that reached the page.
// Warnings holds load-state waits that did not complete; they never abort
// the test.
type NavigationResult struct {
	URL      string
	Warnings []error
}

// Complete reports whether every load-state wait succeeded.
func (r NavigationResult) Complete() bool {
	return len(r.Warnings) == 0
}

// PageController opens, navigates and closes page sessions.
type PageController struct {
	logger *logging.Logger
}

// NewPageController creates a page controller. A nil logger discards output.
func NewPageController(logger *logging.Logger) *PageController {
	if logger == nil {
		logger = logging.Discard("page")
	}
	return &PageController{logger: logger}
}

// Open creates a fresh context and page on the session's browser, applies
// the viewport and the default action and navigation timeouts.
func (c *PageController) Open(session *BrowserSession, viewport Viewport, timeouts Timeouts) (*PageSession, error) {
	if session == nil || session.Browser == nil || session.Closed() {
		return nil, ErrSessionClosed
	}
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	timeouts = timeouts.withDefaults()

	bc, err := session.Browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bc.NewPage()
	if err != nil {
		_ = bc.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	ps := &PageSession{
		ID:         uuid.New().String(),
		Viewport:   viewport,
		Timeouts:   timeouts,
		Context:    bc,
		Page:       page,
		CreatedAt:  time.Now(),
		state:      StateCreated,
		currentURL: "about:blank",
	}

	if err := page.SetViewportSize(viewport.Width, viewport.Height); err != nil {
		_ = bc.Close()
		return nil, fmt.Errorf("failed to set viewport %dx%d: %w", viewport.Width, viewport.Height, err)
	}
	page.SetDefaultTimeout(millis(timeouts.Action))
	page.SetDefaultNavigationTimeout(millis(timeouts.Navigation))
	ps.setState(StateConfigured)

	c.logger.Debugf("opened page %s (%dx%d)", ps.ID, viewport.Width, viewport.Height)
	return ps, nil
}

var navigationLoadStates = []*playwright.LoadState{
	playwright.LoadStateLoad,
	playwright.LoadStateDomcontentloaded,
}

// Navigate loads url and then waits for the load and DOMContentLoaded
// states. A failed request is returned as a *NavigationError. A load-state
// wait that times out is logged and reported in NavigationResult.Warnings.
func (c *PageController) Navigate(ps *PageSession, url string) (NavigationResult, error) {
	result := NavigationResult{URL: url}
	if ps == nil || ps.Page == nil || ps.State() == StateClosed {
		return result, ErrPageClosed
	}

	if _, err := ps.Page.Goto(url); err != nil {
		return result, &NavigationError{URL: url, Err: err}
	}

	result.Warnings = c.waitLoadStates(ps)

	ps.mu.Lock()
	ps.state = StateNavigated
	ps.currentURL = ps.Page.URL()
	ps.mu.Unlock()

	c.logger.Infof("navigated to %s", url)
	return result, nil
}

func (c *PageController) waitLoadStates(ps *PageSession) []error {
	var warnings []error
	for _, state := range navigationLoadStates {
		err := ps.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   state,
			Timeout: playwright.Float(millis(ps.Timeouts.LoadState)),
		})
		if err == nil {
			continue
		}
		w := &LoadStateWarning{State: string(*state), Timeout: ps.Timeouts.LoadState, Err: err}
		c.logger.Warnf("%v", w)
		warnings = append(warnings, w)
	}
	return warnings
}

// Close closes the page session's context. Errors are logged, not returned.
func (c *PageController) Close(ps *PageSession) {
	if ps == nil {
		return
	}

	ps.mu.Lock()
	if ps.state == StateClosed {
		ps.mu.Unlock()
		return
	}
	ps.state = StateClosed
	ps.mu.Unlock()

	if ps.Context == nil {
		return
	}
	if err := ps.Context.Close(); err != nil {
		c.logger.Warnf("failed to close page %s: %v", ps.ID, err)
	}
}
