package browser

import (
	"errors"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// callLog records close calls across fakes so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeLocator struct {
	playwright.Locator
	waitErr  error
	text     string
	value    string
	count    int
	clicked  int
	filled   string
	cleared  bool
	waitedOn []string
}

func (l *fakeLocator) First() playwright.Locator { return l }

func (l *fakeLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	if len(options) > 0 && options[0].State != nil {
		l.waitedOn = append(l.waitedOn, string(*options[0].State))
	}
	return l.waitErr
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	l.clicked++
	return nil
}

func (l *fakeLocator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	l.filled = value
	return nil
}

func (l *fakeLocator) Clear(options ...playwright.LocatorClearOptions) error {
	l.cleared = true
	l.filled = ""
	return nil
}

func (l *fakeLocator) TextContent(options ...playwright.LocatorTextContentOptions) (string, error) {
	return l.text, nil
}

func (l *fakeLocator) InputValue(options ...playwright.LocatorInputValueOptions) (string, error) {
	return l.value, nil
}

func (l *fakeLocator) Count() (int, error) {
	return l.count, nil
}

type fakePage struct {
	playwright.Page
	gotoErr      error
	loadStateErr map[string]error
	url          string
	width        int
	height       int
	timeout      float64
	navTimeout   float64
	loadStates   []string
	evaluated    []string
	locators     map[string]*fakeLocator
}

func newFakePage() *fakePage {
	return &fakePage{
		url:          "about:blank",
		loadStateErr: map[string]error{},
		locators:     map[string]*fakeLocator{},
	}
}

func (p *fakePage) SetViewportSize(width int, height int) error {
	p.width, p.height = width, height
	return nil
}

func (p *fakePage) SetDefaultTimeout(timeout float64) { p.timeout = timeout }

func (p *fakePage) SetDefaultNavigationTimeout(timeout float64) { p.navTimeout = timeout }

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	if p.gotoErr != nil {
		return nil, p.gotoErr
	}
	p.url = url
	return nil, nil
}

func (p *fakePage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	state := string(*playwright.LoadStateLoad)
	if len(options) > 0 && options[0].State != nil {
		state = string(*options[0].State)
	}
	p.loadStates = append(p.loadStates, state)
	return p.loadStateErr[state]
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	p.evaluated = append(p.evaluated, expression)
	return nil, nil
}

func (p *fakePage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	if l, ok := p.locators[selector]; ok {
		return l
	}
	l := &fakeLocator{waitErr: errors.New("timeout waiting for " + selector)}
	p.locators[selector] = l
	return l
}

type fakeContext struct {
	playwright.BrowserContext
	log      *callLog
	name     string
	page     *fakePage
	newErr   error
	closeErr error
	closed   int
}

func (c *fakeContext) NewPage() (playwright.Page, error) {
	if c.newErr != nil {
		return nil, c.newErr
	}
	if c.page == nil {
		c.page = newFakePage()
	}
	return c.page, nil
}

func (c *fakeContext) Pages() []playwright.Page {
	if c.page == nil {
		return nil
	}
	return []playwright.Page{c.page}
}

func (c *fakeContext) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.closed++
	if c.log != nil {
		c.log.add("context:" + c.name)
	}
	return c.closeErr
}

type fakeBrowser struct {
	playwright.Browser
	log       *callLog
	contexts  []*fakeContext
	closeErr  error
	connected bool
	closed    int
	newCtxErr error
	nextPage  *fakePage
}

func (b *fakeBrowser) Contexts() []playwright.BrowserContext {
	out := make([]playwright.BrowserContext, 0, len(b.contexts))
	for _, c := range b.contexts {
		out = append(out, c)
	}
	return out
}

func (b *fakeBrowser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	if b.newCtxErr != nil {
		return nil, b.newCtxErr
	}
	c := &fakeContext{log: b.log, page: b.nextPage}
	b.contexts = append(b.contexts, c)
	return c, nil
}

func (b *fakeBrowser) Close(options ...playwright.BrowserCloseOptions) error {
	b.closed++
	b.connected = false
	if b.log != nil {
		b.log.add("browser")
	}
	return b.closeErr
}

func (b *fakeBrowser) IsConnected() bool { return b.connected }

func (b *fakeBrowser) Version() string { return "fake-1.0" }

type fakeBrowserType struct {
	playwright.BrowserType
	browser   *fakeBrowser
	launchErr error
	launched  []playwright.BrowserTypeLaunchOptions
}

func (bt *fakeBrowserType) Launch(options ...playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	if len(options) > 0 {
		bt.launched = append(bt.launched, options[0])
	}
	if bt.launchErr != nil {
		return nil, bt.launchErr
	}
	return bt.browser, nil
}

type fakeDriver struct {
	log     *callLog
	types   map[EngineType]*fakeBrowserType
	stopErr error
	stopped int
}

func (d *fakeDriver) BrowserType(engine EngineType) (playwright.BrowserType, error) {
	bt, ok := d.types[engine]
	if !ok {
		return nil, &UnsupportedEngineError{Engine: engine}
	}
	return bt, nil
}

func (d *fakeDriver) Stop() error {
	d.stopped++
	if d.log != nil {
		d.log.add("driver")
	}
	return d.stopErr
}

// newFakeDriver wires one connected fake browser behind every engine.
func newFakeDriver(log *callLog) (*fakeDriver, *fakeBrowser) {
	b := &fakeBrowser{log: log, connected: true}
	d := &fakeDriver{log: log, types: map[EngineType]*fakeBrowserType{}}
	for _, e := range Engines {
		d.types[e] = &fakeBrowserType{browser: b}
	}
	return d, b
}

func factoryFor(d *fakeDriver) DriverFactory {
	return func() (Driver, error) { return d, nil }
}
