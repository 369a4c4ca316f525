// Package recovery restores clients stranded by frontend version skew.
//
// A chunk-split client holds a dependency map frozen at the deployment it
// was served from. Once a newer deployment replaces the content-addressed
// assets, any navigation into a not-yet-loaded chunk fails — permanently,
// because the stale map can never name the new files. The only correct
// recovery is a hard reload of the entry document at the location the user
// was trying to reach, which this package performs automatically, once.
//
// The mechanism correlates two independent failure channels. Every chunk
// load failure is recorded by identity; every aborted navigation is checked
// against that record. Only a navigation carrying an error previously seen
// on the chunk channel triggers the reload — an error that merely resembles
// a chunk failure does not. Aborts the mechanism does not claim (guard
// rejections, duplicate navigations) pass untouched to the application's
// own error handling.
//
// Wire it once during startup, after constructing the router:
//
//	recovery.Setup(appRouter, loader,
//	    recovery.WithBasePath("/app/"),
//	)
package recovery

import (
	"sync"
	"sync/atomic"
	"weak"

	"github.com/go-drift/keel/pkg/chunk"
	"github.com/go-drift/keel/pkg/errors"
	"github.com/go-drift/keel/pkg/host"
	"github.com/go-drift/keel/pkg/router"
)

// Option configures Setup.
type Option func(*options)

type options struct {
	basePath  string
	navigator host.Navigator
}

// WithBasePath sets the deployment base path joined into the reload target.
// Defaults to the loader's manifest BasePath.
func WithBasePath(basePath string) Option {
	return func(o *options) { o.basePath = basePath }
}

// WithNavigator sets the hard-navigation primitive.
// Defaults to a BridgeNavigator on host.DefaultBridge.
func WithNavigator(nav host.Navigator) Option {
	return func(o *options) { o.navigator = nav }
}

// wired tracks which routers already have recovery attached. Weak
// references: tracking a router must not keep it alive, and entries for
// collected routers are swept on the next Setup.
var (
	setupMu sync.Mutex
	wired   = make(map[weak.Pointer[router.Router]]struct{})
)

// Setup wires skew recovery between a loader and a router. Call it once
// during application startup; wiring the same router again is a no-op, so a
// matching failure can never trigger two reloads. Setup does not retain the
// router beyond the listeners it registers on it.
//
// Setup registers two listeners and returns nothing: a loader-failure
// listener that records each failure, and a router-error hook that checks
// membership and, on a match, hard-navigates to the intended destination.
// Neither listener suppresses or alters the errors it observes.
func Setup(rt *router.Router, loader *chunk.Loader, opts ...Option) {
	ref := weak.Make(rt)

	setupMu.Lock()
	if _, ok := wired[ref]; ok {
		setupMu.Unlock()
		return
	}
	for w := range wired {
		if w.Value() == nil {
			delete(wired, w)
		}
	}
	wired[ref] = struct{}{}
	setupMu.Unlock()

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.basePath == "" {
		o.basePath = loader.Manifest().BasePath
	}
	if o.navigator == nil {
		o.navigator = host.NewBridgeNavigator(host.DefaultBridge)
	}

	c := &controller{
		registry:  newRegistry(),
		navigator: o.navigator,
		basePath:  o.basePath,
	}

	// The listener only records. The failure keeps propagating to whatever
	// requested the chunk; the router delivers it again on its own channel,
	// and that second delivery is what intercept correlates against.
	loader.Failures().Listen(func(e *chunk.LoadError) {
		c.registry.add(e)
	})

	rt.OnError(c.intercept)
}

// controller owns one wired router's recovery state.
type controller struct {
	registry  *registry
	navigator host.Navigator
	basePath  string
	reloaded  atomic.Bool
}

// intercept is the router-error hook: the decision point of the mechanism.
func (c *controller) intercept(err error, to router.Destination) {
	if !c.registry.has(err) {
		// Not a failure we observed on the chunk channel. Guard
		// rejections, duplicate navigations and the rest stay with the
		// application's generic error handling; a hard reload would be
		// the wrong recovery for any of them.
		return
	}
	c.reload(to)
}

// reload performs the hard navigation. At most one reload per session: the
// navigation replaces the whole document, so nothing after the first
// successful Assign matters.
func (c *controller) reload(to router.Destination) {
	if !c.reloaded.CompareAndSwap(false, true) {
		return
	}
	target := JoinBasePath(c.basePath, to.FullPath())
	if err := c.navigator.Assign(target); err != nil {
		// The shell refused the navigation. Clear the latch so a later
		// matching failure may retry, and surface the fault.
		c.reloaded.Store(false)
		errors.Report(&errors.KeelError{
			Op:   "recovery.reload",
			Kind: errors.KindBridge,
			Path: target,
			Err:  err,
		})
	}
}
