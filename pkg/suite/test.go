package suite

import (
	"context"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/execution"
	"github.com/entrhq/pagekit/pkg/logging"
	"github.com/entrhq/pagekit/pkg/pages"
)

// T is the handle a running test gets: its page and its worker context.
type T struct {
	ctx      context.Context
	name     string
	exec     *execution.Context
	page     *browser.PageContext
	resolver *pages.Resolver
}

// Name returns the test name.
func (t *T) Name() string { return t.name }

// Context returns the test's context. It carries the execution context and
// is cancelled when the test times out.
func (t *T) Context() context.Context { return t.ctx }

// Exec returns the worker's execution context.
func (t *T) Exec() *execution.Context { return t.exec }

// Page returns the page context opened for this test.
func (t *T) Page() *browser.PageContext { return t.page }

// Logger returns the worker-scoped logger.
func (t *T) Logger() *logging.Logger { return t.exec.Logger }

// Open resolves the registered page name, builds its page object and
// navigates to it. Load-state warnings are logged by the page controller.
func (t *T) Open(name string, params ...any) (pages.Object, error) {
	if t.resolver == nil {
		return nil, &pages.MissingDescriptorError{Page: name}
	}
	obj, _, err := t.resolver.Open(name, t.exec, t.page, params...)
	return obj, err
}
