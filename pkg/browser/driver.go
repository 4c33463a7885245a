package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// Driver is a running automation engine process. Each BrowserSession owns
// exactly one driver and stops it when the session is closed.
type Driver interface {
	// BrowserType returns the launcher for the given engine.
	BrowserType(engine EngineType) (playwright.BrowserType, error)

	// Stop terminates the engine process.
	Stop() error
}

// DriverFactory starts a new Driver.
type DriverFactory func() (Driver, error)

type playwrightDriver struct {
	pw *playwright.Playwright
}

func (d *playwrightDriver) BrowserType(engine EngineType) (playwright.BrowserType, error) {
	switch engine {
	case Chromium:
		return d.pw.Chromium, nil
	case Firefox:
		return d.pw.Firefox, nil
	case WebKit:
		return d.pw.WebKit, nil
	default:
		return nil, &UnsupportedEngineError{Engine: engine}
	}
}

func (d *playwrightDriver) Stop() error {
	return d.pw.Stop()
}

func runOptions(engines ...EngineType) *playwright.RunOptions {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	for _, e := range engines {
		opts.Browsers = append(opts.Browsers, string(e))
	}
	return opts
}

// PlaywrightDriver starts the Playwright driver process without installing
// anything. Browsers are expected to be installed already (see Install).
func PlaywrightDriver() (Driver, error) {
	pw, err := playwright.Run(runOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return &playwrightDriver{pw: pw}, nil
}

// Install downloads the driver and the given browser engines.
// With no engines it installs every engine Playwright supports.
func Install(engines ...EngineType) error {
	for _, e := range engines {
		if !e.Valid() {
			return &UnsupportedEngineError{Engine: e}
		}
	}
	if err := playwright.Install(runOptions(engines...)); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}
