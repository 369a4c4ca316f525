package router

import (
	"errors"
	"fmt"
)

// Navigation failure sentinels. Error hooks receive errors wrapping these
// for transitions the router itself aborted; chunk load failures pass
// through as the loader produced them.
var (
	// ErrNoRoute indicates no route pattern matched the path.
	ErrNoRoute = errors.New("router: no matching route")
	// ErrDuplicateNavigation indicates the destination equals the
	// committed location.
	ErrDuplicateNavigation = errors.New("router: duplicate navigation")
	// ErrNavigationRejected indicates a redirect guard rejected the
	// transition.
	ErrNavigationRejected = errors.New("router: navigation rejected")
	// ErrRedirectLoop indicates redirect guards exceeded the hop limit.
	ErrRedirectLoop = errors.New("router: redirect loop")
)

func noRouteError(path string) error {
	return fmt.Errorf("%w: %s", ErrNoRoute, path)
}

func duplicateError(path string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateNavigation, path)
}

func rejectedError(path string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrNavigationRejected, path, cause)
}

func redirectLoopError(path string) error {
	return fmt.Errorf("%w: starting from %s", ErrRedirectLoop, path)
}
