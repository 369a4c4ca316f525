// Package router provides URL-based navigation for chunk-split applications.
//
// The router matches in-app locations ("/todos/42?tab=done#notes") against a
// declarative route tree, evaluates redirect guards, and resolves each
// route's code chunk through a chunk.Loader before committing the
// transition. Every aborted transition, whatever the cause, is delivered to
// the hooks registered with [Router.OnError] together with the intended
// [Destination] — that channel is what the recovery mechanism listens on.
package router

import (
	"context"
	"sync"

	"github.com/go-drift/keel/pkg/chunk"
)

// maxRedirects bounds guard-driven redirect chains.
const maxRedirects = 8

// Route defines a node in the route tree.
//
// A Route can be a destination (with Chunk), a prefix group (with only
// Children), or both. Child paths are concatenated with the parent's path;
// a parent's Redirect applies to all of its descendants.
type Route struct {
	// Path is the URL pattern for this route.
	// Use :param for path parameters and *param for wildcards.
	Path string

	// Chunk is the logical name of the code chunk this route needs.
	// Empty for prefix-group routes.
	Chunk string

	// Redirect defines redirect logic for this route and its descendants.
	// Checked after the Router's global Redirect callback; ancestor
	// redirects are evaluated outermost-first.
	Redirect func(ctx RedirectContext) RedirectResult

	// Children defines nested child routes.
	Children []Route
}

// RedirectContext carries the transition a redirect guard is evaluating.
type RedirectContext struct {
	// FromPath is the current full path, empty on initial navigation.
	FromPath string
	// ToPath is the intended full path.
	ToPath string
	// Params are the path parameters of the matched route.
	Params map[string]string
}

// RedirectResult is a redirect guard's verdict.
// The zero value allows the transition.
type RedirectResult struct {
	// Path redirects the transition when non-empty.
	Path string
	// Err rejects the transition when non-nil.
	Err error
}

// NoRedirect allows the transition.
func NoRedirect() RedirectResult { return RedirectResult{} }

// RedirectTo redirects the transition to path.
func RedirectTo(path string) RedirectResult { return RedirectResult{Path: path} }

// Reject aborts the transition with the given cause.
func Reject(err error) RedirectResult { return RedirectResult{Err: err} }

// Config configures a Router.
type Config struct {
	// Routes defines the route tree.
	Routes []Route

	// Loader resolves route chunks. Required for routes with a Chunk.
	Loader *chunk.Loader

	// Redirect is the global redirect guard, checked before every
	// navigation.
	Redirect func(ctx RedirectContext) RedirectResult

	// InitialPath is the starting location. Defaults to "/".
	InitialPath string

	// TrailingSlashBehavior defaults to TrailingSlashStrip.
	TrailingSlashBehavior TrailingSlashBehavior

	// CaseSensitivity defaults to CaseSensitive.
	CaseSensitivity CaseSensitivity
}

// indexedRoute is a compiled entry of the flattened route tree.
type indexedRoute struct {
	pattern   *PathPattern
	route     Route
	fullPath  string
	redirects []func(RedirectContext) RedirectResult // ancestors, outermost first
}

// ErrorHook receives aborted transitions.
//
// The error passed to a hook is the same value the failing operation
// produced: a chunk load failure arrives as the loader's own error
// instance, not a copy or a wrapper.
type ErrorHook func(err error, to Destination)

// Router matches paths, runs guards, loads chunks, and tracks the current
// location. All navigation methods are safe for use from a single
// cooperative event loop; Router does not start goroutines of its own.
type Router struct {
	cfg   Config
	index []*indexedRoute

	mu        sync.Mutex
	current   Destination
	committed bool
	hooks     map[int]ErrorHook
	nextID    int
}

// New creates a router from the configuration. The route tree is compiled
// once, up front.
func New(cfg Config) *Router {
	if cfg.InitialPath == "" {
		cfg.InitialPath = "/"
	}
	r := &Router{
		cfg:   cfg,
		hooks: make(map[int]ErrorHook),
	}
	r.indexRoutes("", nil, cfg.Routes)

	path, rawQuery, hash := SplitPath(cfg.InitialPath)
	r.current = Destination{Path: path, RawQuery: rawQuery, Hash: hash}
	return r
}

func (r *Router) indexRoutes(prefix string, redirects []func(RedirectContext) RedirectResult, routes []Route) {
	for _, route := range routes {
		fullPath := prefix + route.Path

		if route.Chunk != "" || len(route.Children) == 0 {
			r.index = append(r.index, &indexedRoute{
				pattern: NewPathPattern(
					fullPath,
					WithTrailingSlash(r.cfg.TrailingSlashBehavior),
					WithCaseSensitivity(r.cfg.CaseSensitivity),
				),
				route:     route,
				fullPath:  fullPath,
				redirects: redirects,
			})
		}

		if len(route.Children) > 0 {
			childRedirects := redirects
			if route.Redirect != nil {
				childRedirects = append(append([]func(RedirectContext) RedirectResult{}, redirects...), route.Redirect)
			}
			r.indexRoutes(fullPath, childRedirects, route.Children)
		}
	}
}

// OnError registers a hook fired for every aborted transition.
// The returned function unregisters the hook.
func (r *Router) OnError(hook ErrorHook) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.hooks[id] = hook
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.hooks, id)
		r.mu.Unlock()
	}
}

// Current returns the committed location.
func (r *Router) Current() Destination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Resolve matches a raw location against the route tree without navigating.
func (r *Router) Resolve(raw string) (Destination, bool) {
	path, rawQuery, hash := SplitPath(raw)
	dest := Destination{Path: path, RawQuery: rawQuery, Hash: hash}

	ir, params := r.findRoute(path)
	if ir == nil {
		return dest, false
	}
	dest.Params = params
	dest.Pattern = ir.fullPath
	dest.Chunk = ir.route.Chunk
	return dest, true
}

// Go navigates to the given raw location ("/todos/42?tab=done#notes").
//
// The transition runs in order: redirect guards, duplicate check, chunk
// resolution, commit. Any abort is delivered to the OnError hooks with the
// intended destination and returned to the caller unchanged.
func (r *Router) Go(ctx context.Context, raw string) error {
	dest, ir, err := r.prepare(raw)
	if err != nil {
		r.abort(err, dest)
		return err
	}

	// The initial location is installed, not navigated to; until a
	// transition commits (and loads its chunk), nothing is a duplicate.
	if r.hasCommitted() && dest.FullPath() == r.Current().FullPath() {
		err := duplicateError(dest.FullPath())
		r.abort(err, dest)
		return err
	}

	if err := r.resolveChunk(ctx, ir); err != nil {
		r.abort(err, dest)
		return err
	}

	r.mu.Lock()
	r.current = dest
	r.committed = true
	r.mu.Unlock()
	return nil
}

func (r *Router) hasCommitted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed
}

// Replace navigates like Go. The distinction matters only to embeddings
// that mirror the router into a history stack; the router itself keeps no
// history.
func (r *Router) Replace(ctx context.Context, raw string) error {
	return r.Go(ctx, raw)
}

// prepare runs redirect guards and matching, following redirects up to
// maxRedirects hops.
func (r *Router) prepare(raw string) (Destination, *indexedRoute, error) {
	from := r.Current().FullPath()

	for hop := 0; hop < maxRedirects; hop++ {
		path, rawQuery, hash := SplitPath(raw)
		dest := Destination{Path: path, RawQuery: rawQuery, Hash: hash}

		ir, params := r.findRoute(path)
		if ir == nil {
			return dest, nil, noRouteError(path)
		}
		dest.Params = params
		dest.Pattern = ir.fullPath
		dest.Chunk = ir.route.Chunk

		result := r.applyRedirect(RedirectContext{
			FromPath: from,
			ToPath:   dest.FullPath(),
			Params:   params,
		}, ir)
		switch {
		case result.Err != nil:
			return dest, nil, rejectedError(dest.FullPath(), result.Err)
		case result.Path != "" && result.Path != raw:
			raw = result.Path
			continue
		}
		return dest, ir, nil
	}

	path, rawQuery, hash := SplitPath(raw)
	return Destination{Path: path, RawQuery: rawQuery, Hash: hash}, nil, redirectLoopError(from)
}

func (r *Router) applyRedirect(ctx RedirectContext, ir *indexedRoute) RedirectResult {
	if r.cfg.Redirect != nil {
		if result := r.cfg.Redirect(ctx); result.Path != "" || result.Err != nil {
			return result
		}
	}
	for _, redirect := range ir.redirects {
		if result := redirect(ctx); result.Path != "" || result.Err != nil {
			return result
		}
	}
	if ir.route.Redirect != nil {
		return ir.route.Redirect(ctx)
	}
	return NoRedirect()
}

func (r *Router) findRoute(path string) (*indexedRoute, map[string]string) {
	for _, ir := range r.index {
		if params, ok := ir.pattern.Match(path); ok {
			return ir, params
		}
	}
	return nil, nil
}

// resolveChunk loads the matched route's chunk. A loader failure is
// returned as-is: the identical error instance the loader published on its
// failure stream.
func (r *Router) resolveChunk(ctx context.Context, ir *indexedRoute) error {
	if ir.route.Chunk == "" {
		return nil
	}
	_, err := r.cfg.Loader.Load(ctx, ir.route.Chunk)
	return err
}

func (r *Router) abort(err error, dest Destination) {
	r.mu.Lock()
	hooks := make([]ErrorHook, 0, len(r.hooks))
	for _, h := range r.hooks {
		hooks = append(hooks, h)
	}
	r.mu.Unlock()

	for _, h := range hooks {
		h(err, dest)
	}
}
