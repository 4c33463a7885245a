package execution

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/browser/browsertest"
)

func TestRegistry_InitGetClear(t *testing.T) {
	r := NewRegistry()
	session := &browser.BrowserSession{ID: "s1"}

	require.NoError(t, r.Init(1, New(0, "https://shop.example.com", "", session)))

	ec, err := r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, WorkerID(1), ec.Worker)
	assert.Equal(t, "https://shop.example.com", ec.BaseURL)
	assert.Same(t, session, ec.Session)

	cleared, ok := r.Clear(1)
	assert.True(t, ok)
	assert.Same(t, ec, cleared)

	_, err = r.Get(1)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, ok = r.Clear(1)
	assert.False(t, ok)
}

func TestRegistry_GetWithoutInit(t *testing.T) {
	_, err := NewRegistry().Get(7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Contains(t, err.Error(), "worker-7")
}

func TestRegistry_DoubleInit(t *testing.T) {
	r := NewRegistry()
	first := New(0, "https://a.example.com", "", nil)
	require.NoError(t, r.Init(2, first))

	err := r.Init(2, New(0, "https://b.example.com", "", nil))
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	ec, err := r.Get(2)
	require.NoError(t, err)
	assert.Same(t, first, ec)
}

func TestRegistry_NilContext(t *testing.T) {
	assert.Error(t, NewRegistry().Init(1, nil))
}

func TestRegistry_WorkerIsolation(t *testing.T) {
	r := NewRegistry()
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id WorkerID) {
			defer wg.Done()
			url := fmt.Sprintf("https://w%d.example.com", id)
			session := &browser.BrowserSession{ID: fmt.Sprintf("session-%d", id)}
			if err := r.Init(id, New(id, url, "", session)); err != nil {
				errs <- err
				return
			}
			for j := 0; j < 100; j++ {
				ec, err := r.Get(id)
				if err != nil {
					errs <- err
					return
				}
				if ec.BaseURL != url || ec.Session != session {
					errs <- fmt.Errorf("%s observed a foreign context %s", id, ec.BaseURL)
					return
				}
			}
			r.Clear(id)
		}(WorkerID(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Empty(t, r.Workers())
}

func TestRegistry_ReplaceSession(t *testing.T) {
	r := NewRegistry()
	old := &browser.BrowserSession{ID: "old"}
	require.NoError(t, r.Init(3, New(3, "https://shop.example.com", "", old)))

	fresh := &browser.BrowserSession{ID: "fresh"}
	prev, err := r.ReplaceSession(3, fresh)
	require.NoError(t, err)
	assert.Same(t, old, prev)

	ec, err := r.Get(3)
	require.NoError(t, err)
	assert.Same(t, fresh, ec.Session)

	_, err = r.ReplaceSession(4, fresh)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestRegistry_Workers(t *testing.T) {
	r := NewRegistry()
	for _, id := range []WorkerID{3, 1, 2} {
		require.NoError(t, r.Init(id, New(id, "https://shop.example.com", "", nil)))
	}
	assert.Equal(t, []WorkerID{1, 2, 3}, r.Workers())
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveSession)

	ec := New(1, "https://shop.example.com", "", nil)
	got, err := FromContext(WithContext(context.Background(), ec))
	require.NoError(t, err)
	assert.Same(t, ec, got)
}

func TestRegistry_PerWorkerEngines(t *testing.T) {
	f := browsertest.NewFactory()
	m := browser.NewSessionManager(browser.WithDriverFactory(f.New))
	r := NewRegistry()

	engines := map[WorkerID]browser.EngineType{
		1: browser.Firefox,
		2: browser.Chromium,
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan error, len(engines))
	for id, engine := range engines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			session, err := m.Launch(context.Background(), engine, true, nil)
			if err != nil {
				errs <- err
				return
			}
			if err := r.Init(id, New(id, "https://shop.example.com", "", session)); err != nil {
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	for id, want := range engines {
		ec, err := r.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want, ec.Session.Engine, "%s", id)
		assert.Equal(t, id, ec.Worker)
	}

	first, _ := r.Get(1)
	second, _ := r.Get(2)
	assert.NotSame(t, first.Session, second.Session)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)

	for _, id := range r.Workers() {
		ec, _ := r.Clear(id)
		m.CloseAll(ec.Session)
	}
	assert.Equal(t, 0, f.Running())
}
