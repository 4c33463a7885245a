// Package browsertest provides in-memory Playwright handles for testing code
// that drives browser sessions without starting a real engine.
package browsertest

import (
	"errors"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagekit/pkg/browser"
)

// ErrClosed is returned by handles used after Close.
var ErrClosed = errors.New("target page, context or browser has been closed")

// Page is a fake playwright.Page. Only the methods used by pagekit are
// implemented; anything else panics through the nil embedded interface.
type Page struct {
	playwright.Page

	mu           sync.Mutex
	url          string
	closed       bool
	GotoErr      error
	LoadStateErr map[string]error
	Shot         []byte
	HTML         string
	Visits       []string
}

func newPage() *Page {
	return &Page{
		url:          "about:blank",
		LoadStateErr: map[string]error{},
		Shot:         []byte("\x89PNG"),
		HTML:         "<html><head></head><body></body></html>",
	}
}

func (p *Page) SetViewportSize(width int, height int) error { return nil }

func (p *Page) SetDefaultTimeout(timeout float64) {}

func (p *Page) SetDefaultNavigationTimeout(timeout float64) {}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.GotoErr != nil {
		return nil, p.GotoErr
	}
	p.url = url
	p.Visits = append(p.Visits, url)
	return nil, nil
}

func (p *Page) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(options) > 0 && options[0].State != nil {
		return p.LoadStateErr[string(*options[0].State)]
	}
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	return p.HTML, nil
}

func (p *Page) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	return p.Shot, nil
}

func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) markClosed() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Context is a fake playwright.BrowserContext holding at most one page.
type Context struct {
	playwright.BrowserContext

	mu      sync.Mutex
	browser *Browser
	page    *Page
	closed  bool
}

func (c *Context) NewPage() (playwright.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	c.page = newPage()
	return c.page, nil
}

func (c *Context) Pages() []playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil || c.closed {
		return nil
	}
	return []playwright.Page{c.page}
}

func (c *Context) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	page := c.page
	c.mu.Unlock()

	if page != nil {
		page.markClosed()
	}
	c.browser.removeContext(c)
	return nil
}

// Page returns the page opened in this context, if any.
func (c *Context) Page() *Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Browser is a fake playwright.Browser.
type Browser struct {
	playwright.Browser

	mu        sync.Mutex
	contexts  []*Context
	connected bool
	closed    bool
	opened    int
}

func (b *Browser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil, ErrClosed
	}
	c := &Context{browser: b}
	b.contexts = append(b.contexts, c)
	b.opened++
	return c, nil
}

func (b *Browser) Contexts() []playwright.BrowserContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]playwright.BrowserContext, 0, len(b.contexts))
	for _, c := range b.contexts {
		out = append(out, c)
	}
	return out
}

func (b *Browser) Close(options ...playwright.BrowserCloseOptions) error {
	b.mu.Lock()
	b.closed = true
	b.connected = false
	contexts := append([]*Context(nil), b.contexts...)
	b.mu.Unlock()

	for _, c := range contexts {
		_ = c.Close()
	}
	return nil
}

func (b *Browser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Browser) Version() string { return "browsertest" }

// Disconnect simulates a crashed engine.
func (b *Browser) Disconnect() {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// OpenContexts returns the number of contexts not yet closed.
func (b *Browser) OpenContexts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.contexts)
}

// ContextsOpened returns how many contexts were ever created.
func (b *Browser) ContextsOpened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

func (b *Browser) removeContext(c *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.contexts {
		if existing == c {
			b.contexts = append(b.contexts[:i], b.contexts[i+1:]...)
			return
		}
	}
}

type browserType struct {
	playwright.BrowserType
	driver *Driver
	engine browser.EngineType
}

func (bt *browserType) Launch(options ...playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	return bt.driver.launch(bt.engine)
}

func (bt *browserType) Name() string { return string(bt.engine) }

// Driver is a fake engine process.
type Driver struct {
	factory *Factory

	mu       sync.Mutex
	browsers []*Browser
	stopped  bool
}

func (d *Driver) BrowserType(engine browser.EngineType) (playwright.BrowserType, error) {
	if !engine.Valid() {
		return nil, &browser.UnsupportedEngineError{Engine: engine}
	}
	return &browserType{driver: d, engine: engine}, nil
}

func (d *Driver) Stop() error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.factory.driverStopped()
	return nil
}

// Stopped reports whether Stop was called.
func (d *Driver) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

func (d *Driver) launch(engine browser.EngineType) (playwright.Browser, error) {
	if err := d.factory.launchError(engine); err != nil {
		return nil, err
	}
	b := &Browser{connected: true}
	d.mu.Lock()
	d.browsers = append(d.browsers, b)
	d.mu.Unlock()
	d.factory.browserLaunched(b)
	return b, nil
}

// Factory hands out fake drivers and keeps count of what was started.
type Factory struct {
	mu        sync.Mutex
	drivers   []*Driver
	browsers  []*Browser
	running   int
	launchErr map[browser.EngineType]error
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{launchErr: map[browser.EngineType]error{}}
}

// New implements browser.DriverFactory.
func (f *Factory) New() (browser.Driver, error) {
	d := &Driver{factory: f}
	f.mu.Lock()
	f.drivers = append(f.drivers, d)
	f.running++
	f.mu.Unlock()
	return d, nil
}

// FailLaunch makes every launch of engine fail with err.
func (f *Factory) FailLaunch(engine browser.EngineType, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launchErr[engine] = err
}

// Browsers returns every browser launched so far.
func (f *Factory) Browsers() []*Browser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Browser(nil), f.browsers...)
}

// Running returns the number of drivers started and not yet stopped.
func (f *Factory) Running() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Started returns the number of drivers ever started.
func (f *Factory) Started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drivers)
}

func (f *Factory) launchError(engine browser.EngineType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launchErr[engine]
}

func (f *Factory) browserLaunched(b *Browser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.browsers = append(f.browsers, b)
}

func (f *Factory) driverStopped() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running--
}
