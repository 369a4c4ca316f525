package recovery

import (
	"reflect"
	"sync"
)

// registry is the session's set of observed chunk-load failures, keyed by
// error identity.
//
// Identity, not message or type, is the membership test: "is this literally
// the value we saw fail a moment ago" stays exact across loader versions,
// where string or type matching would not. Membership only grows; entries
// are garbage once the session's hard reload tears the process state down.
//
// The mutex is insurance for embeddings that run the loader and the router
// on different goroutines; on a single cooperative loop it is uncontended.
type registry struct {
	mu   sync.Mutex
	seen map[error]struct{}
}

func newRegistry() *registry {
	return &registry{seen: make(map[error]struct{})}
}

// add records a failure. Errors with uncomparable dynamic types cannot be
// map keys and are ignored; the loader only ever produces pointer errors.
func (r *registry) add(err error) {
	if !comparableError(err) {
		return
	}
	r.mu.Lock()
	r.seen[err] = struct{}{}
	r.mu.Unlock()
}

// has reports whether exactly this error value was recorded.
func (r *registry) has(err error) bool {
	if !comparableError(err) {
		return false
	}
	r.mu.Lock()
	_, ok := r.seen[err]
	r.mu.Unlock()
	return ok
}

func comparableError(err error) bool {
	return err != nil && reflect.TypeOf(err).Comparable()
}
