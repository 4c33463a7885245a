// Package execution holds the per-worker execution context: which browser
// session a worker drives and which application it targets.
package execution

import (
	"context"
	"fmt"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/logging"
)

// WorkerID identifies one suite worker goroutine.
type WorkerID int

func (w WorkerID) String() string {
	return fmt.Sprintf("worker-%d", int(w))
}

// Context is everything a worker needs to run tests against one application.
// It is owned by exactly one worker.
type Context struct {
	Worker        WorkerID
	BaseURL       string
	BackOfficeURL string
	Session       *browser.BrowserSession
	Logger        *logging.Logger
}

// New creates a context for worker targeting baseURL.
func New(worker WorkerID, baseURL, backOfficeURL string, session *browser.BrowserSession) *Context {
	return &Context{
		Worker:        worker,
		BaseURL:       baseURL,
		BackOfficeURL: backOfficeURL,
		Session:       session,
	}
}

type ctxKey struct{}

// WithContext returns a copy of parent carrying ec.
func WithContext(parent context.Context, ec *Context) context.Context {
	return context.WithValue(parent, ctxKey{}, ec)
}

// FromContext returns the execution context carried by ctx.
func FromContext(ctx context.Context) (*Context, error) {
	ec, ok := ctx.Value(ctxKey{}).(*Context)
	if !ok || ec == nil {
		return nil, ErrNoActiveSession
	}
	return ec, nil
}
