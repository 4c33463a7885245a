package execution

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/entrhq/pagekit/pkg/browser"
)

var (
	ErrNoActiveSession    = errors.New("no active execution context")
	ErrAlreadyInitialized = errors.New("execution context already initialized")
)

// Registry maps workers to their execution contexts.
type Registry struct {
	contexts sync.Map // WorkerID -> *Context
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Init binds ec to worker. It fails if the worker already has a context.
func (r *Registry) Init(worker WorkerID, ec *Context) error {
	if ec == nil {
		return fmt.Errorf("init %s: nil context", worker)
	}
	ec.Worker = worker
	if _, loaded := r.contexts.LoadOrStore(worker, ec); loaded {
		return fmt.Errorf("init %s: %w", worker, ErrAlreadyInitialized)
	}
	return nil
}

// Get returns the context of worker.
func (r *Registry) Get(worker WorkerID) (*Context, error) {
	v, ok := r.contexts.Load(worker)
	if !ok {
		return nil, fmt.Errorf("%s: %w", worker, ErrNoActiveSession)
	}
	return v.(*Context), nil
}

// Clear unbinds the context of worker and returns it, if any.
func (r *Registry) Clear(worker WorkerID) (*Context, bool) {
	v, ok := r.contexts.LoadAndDelete(worker)
	if !ok {
		return nil, false
	}
	return v.(*Context), true
}

// ReplaceSession swaps the browser session of a live worker and returns the
// previous one.
func (r *Registry) ReplaceSession(worker WorkerID, session *browser.BrowserSession) (*browser.BrowserSession, error) {
	ec, err := r.Get(worker)
	if err != nil {
		return nil, err
	}
	prev := ec.Session
	ec.Session = session
	return prev, nil
}

// Workers returns the ids of every worker with a live context, sorted.
func (r *Registry) Workers() []WorkerID {
	var ids []WorkerID
	r.contexts.Range(func(k, _ any) bool {
		ids = append(ids, k.(WorkerID))
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
