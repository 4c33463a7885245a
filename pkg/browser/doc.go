// Package browser manages browser engine sessions and the pages opened on them.
//
// # Architecture
//
// The package is built around three core concepts:
//
// 1. BrowserSession: one Playwright driver process plus the browser it launched
// 2. PageSession: an isolated browser context holding a single page
// 3. PageContext: the capability value page objects are built on
//
// Every worker owns its BrowserSession exclusively. Nothing in this package
// is global; callers pass sessions explicitly.
//
// # Session Lifecycle
//
//  1. Launch: SessionManager.Launch starts a driver and launches an engine
//  2. Open: PageController.Open creates a context and page with viewport and timeouts
//  3. Navigate: PageController.Navigate loads a URL and waits for load states
//  4. Close: PageController.Close per test, SessionManager.CloseAll per suite
//
// # Failure Policy
//
// Failures are split into two kinds:
//
//   - Hard: launch failures, failed requests, missing elements. These are
//     returned as errors and fail the test.
//   - Soft: load-state waits that time out after a navigation. These are
//     logged and returned in NavigationResult.Warnings.
//
// Teardown never fails: CloseAll and Close log what they could not close
// and keep going.
//
// # Example Usage
//
//	manager := browser.NewSessionManager(browser.WithLogger(logger))
//	session, err := manager.Launch(ctx, browser.Chromium, true, nil)
//	if err != nil {
//	    return err
//	}
//	defer manager.CloseAll(session)
//
//	pages := browser.NewPageController(logger)
//	ps, err := pages.Open(session, browser.Desktop1920x1080, browser.DefaultTimeouts())
//	if err != nil {
//	    return err
//	}
//	defer pages.Close(ps)
//
//	result, err := pages.Navigate(ps, "https://shop.example.com/en-us/login")
package browser
