package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagekit/pkg/wait"
)

// Capabilities is what every page object can do with its page.
type Capabilities interface {
	Locate(selector string) playwright.Locator
	WaitFor(selector string) (playwright.Locator, error)
	Navigate(url string) (NavigationResult, error)
}

// PageContext is the capability value injected into page objects. It wraps
// one PageSession and routes navigation through a PageController.
type PageContext struct {
	session    *PageSession
	controller *PageController
	poller     *wait.Poller
}

var _ Capabilities = (*PageContext)(nil)

// NewPageContext binds a page session to the controller that navigates it.
func NewPageContext(ps *PageSession, controller *PageController) *PageContext {
	if controller == nil {
		controller = NewPageController(nil)
	}
	return &PageContext{
		session:    ps,
		controller: controller,
		poller:     wait.NewPoller(wait.DefaultPollInterval),
	}
}

// Session returns the underlying page session.
func (pc *PageContext) Session() *PageSession {
	return pc.session
}

// Page returns the Playwright page.
func (pc *PageContext) Page() playwright.Page {
	return pc.session.Page
}

// Locate returns a lazy locator for selector.
func (pc *PageContext) Locate(selector string) playwright.Locator {
	return pc.session.Page.Locator(selector)
}

// WaitFor waits until the first element matching selector is visible.
func (pc *PageContext) WaitFor(selector string) (playwright.Locator, error) {
	return pc.waitState(selector, playwright.WaitForSelectorStateVisible)
}

// WaitPresent waits until the first element matching selector is attached
// to the DOM, visible or not.
func (pc *PageContext) WaitPresent(selector string) (playwright.Locator, error) {
	return pc.waitState(selector, playwright.WaitForSelectorStateAttached)
}

// WaitHidden waits until no element matching selector is visible.
func (pc *PageContext) WaitHidden(selector string) error {
	_, err := pc.waitState(selector, playwright.WaitForSelectorStateHidden)
	return err
}

func (pc *PageContext) waitState(selector string, state *playwright.WaitForSelectorState) (playwright.Locator, error) {
	loc := pc.Locate(selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{State: state}); err != nil {
		return nil, fmt.Errorf("element %q did not reach state %s: %w", selector, *state, err)
	}
	return loc, nil
}

// Click waits for selector to be visible and clicks it.
func (pc *PageContext) Click(selector string) error {
	loc, err := pc.WaitFor(selector)
	if err != nil {
		return err
	}
	if err := loc.Click(); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// Fill waits for selector to be visible and replaces its value.
func (pc *PageContext) Fill(selector, value string) error {
	loc, err := pc.WaitFor(selector)
	if err != nil {
		return err
	}
	if err := loc.Fill(value); err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	return nil
}

// Clear empties the input matching selector.
func (pc *PageContext) Clear(selector string) error {
	loc, err := pc.WaitFor(selector)
	if err != nil {
		return err
	}
	if err := loc.Clear(); err != nil {
		return fmt.Errorf("clear %q: %w", selector, err)
	}
	return nil
}

// Text returns the trimmed text content of the first visible match.
func (pc *PageContext) Text(selector string) (string, error) {
	loc, err := pc.WaitFor(selector)
	if err != nil {
		return "", err
	}
	text, err := loc.TextContent()
	if err != nil {
		return "", fmt.Errorf("read text of %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// InputValue returns the current value of the input matching selector.
func (pc *PageContext) InputValue(selector string) (string, error) {
	loc, err := pc.WaitPresent(selector)
	if err != nil {
		return "", err
	}
	v, err := loc.InputValue()
	if err != nil {
		return "", fmt.Errorf("read value of %q: %w", selector, err)
	}
	return v, nil
}

// IsPresent reports whether at least one element matches selector right now.
func (pc *PageContext) IsPresent(selector string) bool {
	n, err := pc.Locate(selector).Count()
	return err == nil && n > 0
}

// Navigate loads url in this page.
func (pc *PageContext) Navigate(url string) (NavigationResult, error) {
	return pc.controller.Navigate(pc.session, url)
}

// WaitContentLoaded waits for DOMContentLoaded. A timeout is returned as a
// *LoadStateWarning so callers can log it and carry on.
func (pc *PageContext) WaitContentLoaded() error {
	timeout := pc.session.Timeouts.LoadState
	err := pc.session.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(millis(timeout)),
	})
	if err != nil {
		return &LoadStateWarning{State: string(*playwright.LoadStateDomcontentloaded), Timeout: timeout, Err: err}
	}
	return nil
}

// CurrentURL returns the page URL once the document has loaded.
func (pc *PageContext) CurrentURL() string {
	if err := pc.WaitContentLoaded(); err != nil {
		pc.controller.logger.Warnf("%v", err)
	}
	return pc.session.Page.URL()
}

// WaitUntil polls cond until it holds or timeout is spent.
func (pc *PageContext) WaitUntil(ctx context.Context, cond wait.Condition, timeout time.Duration, message string) error {
	return pc.poller.Until(ctx, cond, timeout, message)
}

// WaitForURL polls until the page URL contains fragment.
func (pc *PageContext) WaitForURL(ctx context.Context, fragment string, timeout time.Duration) error {
	return pc.WaitUntil(ctx, func() bool {
		return strings.Contains(pc.session.Page.URL(), fragment)
	}, timeout, fmt.Sprintf("page URL does not contain %q", fragment))
}

// ClearLocalStorage empties window.localStorage for the current origin.
func (pc *PageContext) ClearLocalStorage() error {
	if _, err := pc.session.Page.Evaluate("() => window.localStorage.clear()"); err != nil {
		return fmt.Errorf("clear local storage: %w", err)
	}
	return nil
}

// ClearSessionStorage empties window.sessionStorage for the current origin.
func (pc *PageContext) ClearSessionStorage() error {
	if _, err := pc.session.Page.Evaluate("() => window.sessionStorage.clear()"); err != nil {
		return fmt.Errorf("clear session storage: %w", err)
	}
	return nil
}

// ClearCookies removes every cookie of the page's browser context.
func (pc *PageContext) ClearCookies() error {
	if pc.session.Context == nil {
		return ErrNoPage
	}
	if err := pc.session.Context.ClearCookies(); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}
