package recovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"
	"weak"

	"github.com/go-drift/keel/pkg/chunk"
	"github.com/go-drift/keel/pkg/errors"
	"github.com/go-drift/keel/pkg/manifest"
	"github.com/go-drift/keel/pkg/router"
)

type fakeNavigator struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNavigator) Assign(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, url)
	return nil
}

func (f *fakeNavigator) assigned() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fixture is a loader+router pair backed by a server on which individual
// chunks can be taken away, the way a new deployment takes them away.
type fixture struct {
	loader *chunk.Loader
	router *router.Router
	nav    *fakeNavigator

	mu   sync.Mutex
	gone map[string]bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := &manifest.Manifest{
		Version:  "v1.0.0",
		BasePath: "/app/",
		Chunks: map[string]manifest.Chunk{
			"home":    {File: "home.aaaa.wasm", MIME: "application/wasm"},
			"todos":   {File: "todos.bbbb.wasm", MIME: "application/wasm"},
			"reports": {File: "reports.cccc.wasm", MIME: "application/wasm"},
		},
	}

	f := &fixture{nav: &fakeNavigator{}, gone: make(map[string]bool)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		missing := f.gone[r.URL.Path[1:]]
		f.mu.Unlock()
		if missing {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/wasm")
		w.Write([]byte("code"))
	}))
	t.Cleanup(server.Close)

	f.loader = chunk.NewLoader(m, server.URL)
	f.router = router.New(router.Config{
		Loader: f.loader,
		Routes: []router.Route{
			{Path: "/", Chunk: "home"},
			{Path: "/todos/:id", Chunk: "todos"},
			{Path: "/reports", Chunk: "reports"},
		},
	})
	return f
}

// remove simulates a newer deployment deleting a chunk's file.
func (f *fixture) remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "home":
		f.gone["home.aaaa.wasm"] = true
	case "todos":
		f.gone["todos.bbbb.wasm"] = true
	case "reports":
		f.gone["reports.cccc.wasm"] = true
	}
}

func TestMatchingFailureTriggersOneReload(t *testing.T) {
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav))

	f.remove("todos")
	if err := f.router.Go(context.Background(), "/todos/42?tab=done"); err == nil {
		t.Fatal("navigation should fail")
	}

	calls := f.nav.assigned()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 hard reload, got %d", len(calls))
	}
	if calls[0] != "/app/todos/42?tab=done" {
		t.Errorf("reload target = %q, want %q", calls[0], "/app/todos/42?tab=done")
	}
}

func TestUnrelatedFailureTriggersNoReload(t *testing.T) {
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav))

	// No matching route: a navigation failure never seen on the chunk
	// failure channel.
	if err := f.router.Go(context.Background(), "/missing"); err == nil {
		t.Fatal("navigation should fail")
	}
	if calls := f.nav.assigned(); len(calls) != 0 {
		t.Errorf("expected no reloads, got %v", calls)
	}
}

func TestGuardRejectionTriggersNoReload(t *testing.T) {
	f := newFixture(t)
	rt := router.New(router.Config{
		Loader: f.loader,
		Routes: []router.Route{
			{Path: "/", Chunk: "home"},
			{
				Path:  "/reports",
				Chunk: "reports",
				Redirect: func(router.RedirectContext) router.RedirectResult {
					return router.Reject(context.Canceled)
				},
			},
		},
	})
	Setup(rt, f.loader, WithNavigator(f.nav))

	if err := rt.Go(context.Background(), "/reports"); err == nil {
		t.Fatal("navigation should be rejected")
	}
	if calls := f.nav.assigned(); len(calls) != 0 {
		t.Errorf("guard rejection must not reload, got %v", calls)
	}
}

func TestTwoRegisteredFailuresOneReload(t *testing.T) {
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav))

	f.remove("todos")
	f.remove("reports")

	// Two distinct failures register before either surfaces as a second
	// navigation.
	if _, err := f.loader.Load(context.Background(), "reports"); err == nil {
		t.Fatal("reports load should fail")
	}

	if err := f.router.Go(context.Background(), "/todos/7"); err == nil {
		t.Fatal("navigation should fail")
	}
	calls := f.nav.assigned()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 reload, got %d: %v", len(calls), calls)
	}
	if calls[0] != "/app/todos/7" {
		t.Errorf("reload target = %q", calls[0])
	}
}

func TestReloadIsTerminal(t *testing.T) {
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav))

	f.remove("todos")
	f.remove("reports")
	f.router.Go(context.Background(), "/todos/1")
	f.router.Go(context.Background(), "/reports")

	if calls := f.nav.assigned(); len(calls) != 1 {
		t.Errorf("reload is terminal; expected 1 call, got %v", calls)
	}
}

func TestSetupTwiceSingleReload(t *testing.T) {
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav))
	Setup(f.router, f.loader, WithNavigator(f.nav))

	f.remove("todos")
	if err := f.router.Go(context.Background(), "/todos/42"); err == nil {
		t.Fatal("navigation should fail")
	}
	if calls := f.nav.assigned(); len(calls) != 1 {
		t.Errorf("double Setup must not double-fire: got %d calls", len(calls))
	}
}

func TestSetupDropsCollectedRouters(t *testing.T) {
	var ref weak.Pointer[router.Router]
	func() {
		f := newFixture(t)
		Setup(f.router, f.loader, WithNavigator(f.nav))
		ref = weak.Make(f.router)
	}()
	runtime.GC()
	runtime.GC()
	if ref.Value() != nil {
		t.Skip("router still reachable; nothing to sweep")
	}

	// The next wiring sweeps entries for collected routers.
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav))

	setupMu.Lock()
	_, tracked := wired[ref]
	setupMu.Unlock()
	if tracked {
		t.Error("collected router should not stay tracked after a later Setup")
	}
}

func TestBasePathDefaultsToManifest(t *testing.T) {
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav))

	f.remove("todos")
	f.router.Go(context.Background(), "/todos/9")

	calls := f.nav.assigned()
	if len(calls) != 1 || calls[0] != "/app/todos/9" {
		t.Errorf("expected manifest base path in target, got %v", calls)
	}
}

func TestBasePathOptionOverridesManifest(t *testing.T) {
	f := newFixture(t)
	Setup(f.router, f.loader, WithNavigator(f.nav), WithBasePath("/beta/"))

	f.remove("todos")
	f.router.Go(context.Background(), "/todos/9")

	calls := f.nav.assigned()
	if len(calls) != 1 || calls[0] != "/beta/todos/9" {
		t.Errorf("expected option base path in target, got %v", calls)
	}
}

type countingHandler struct {
	mu   sync.Mutex
	errs []*errors.KeelError
}

func (h *countingHandler) HandleError(err *errors.KeelError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *countingHandler) HandlePanic(*errors.PanicError) {}

func TestRefusedNavigationReportsAndRetries(t *testing.T) {
	handler := &countingHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	f := newFixture(t)
	f.nav.err = context.DeadlineExceeded // shell refuses the first attempt
	Setup(f.router, f.loader, WithNavigator(f.nav))

	f.remove("todos")
	f.remove("reports")
	f.router.Go(context.Background(), "/todos/1")

	handler.mu.Lock()
	reported := len(handler.errs)
	handler.mu.Unlock()
	if reported != 1 {
		t.Fatalf("refused navigation should be reported once, got %d", reported)
	}

	// The latch cleared; the next matching failure retries the reload.
	f.nav.mu.Lock()
	f.nav.err = nil
	f.nav.mu.Unlock()
	f.router.Go(context.Background(), "/reports")

	if calls := f.nav.assigned(); len(calls) != 1 {
		t.Errorf("expected a successful retry, got %v", calls)
	}
}
