package host

import (
	"fmt"
	"net/url"
	"strings"
)

// NavigationChannel is the bridge channel for document navigation.
const NavigationChannel = "keel/navigation"

// Navigator performs hard, full-document navigations in the embedding shell.
//
// Assign is terminal from the runtime's point of view: the shell discards
// the current document, and with it every in-memory structure of the running
// application, then fetches url from the server.
type Navigator interface {
	// Assign replaces the current document with the one at url.
	// url is either absolute ("https://example.com/app/x") or
	// path-absolute ("/app/x").
	Assign(url string) error
}

// BridgeNavigator is a Navigator that drives the embedding shell over a
// [Bridge] method channel.
type BridgeNavigator struct {
	bridge *Bridge
}

// NewBridgeNavigator creates a navigator on the given bridge.
func NewBridgeNavigator(bridge *Bridge) *BridgeNavigator {
	return &BridgeNavigator{bridge: bridge}
}

// Assign asks the shell to replace the current document.
func (n *BridgeNavigator) Assign(rawURL string) error {
	if err := validateTarget(rawURL); err != nil {
		return err
	}
	_, err := n.bridge.Invoke(NavigationChannel, "assign", map[string]any{
		"url": rawURL,
	})
	return err
}

func validateTarget(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("host: empty navigation target")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("host: invalid navigation target: %w", err)
	}
	// Path-absolute targets are resolved by the shell against the current
	// origin; anything else needs a scheme.
	if u.Scheme == "" && !strings.HasPrefix(rawURL, "/") {
		return fmt.Errorf("host: relative navigation target: %q", rawURL)
	}
	return nil
}
