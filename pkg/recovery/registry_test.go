package recovery

import (
	"errors"
	"testing"

	"github.com/go-drift/keel/pkg/chunk"
)

func TestRegistryIdentity(t *testing.T) {
	r := newRegistry()
	e := &chunk.LoadError{Chunk: "settings", Reason: chunk.ReasonStatus, Status: 404}
	r.add(e)

	if !r.has(e) {
		t.Error("registered instance should be a member")
	}

	// Equal by content, different instance: not a member.
	twin := &chunk.LoadError{Chunk: "settings", Reason: chunk.ReasonStatus, Status: 404}
	if r.has(twin) {
		t.Error("membership is per-instance, not per-content")
	}
}

func TestRegistryUnknownError(t *testing.T) {
	r := newRegistry()
	if r.has(errors.New("never seen")) {
		t.Error("unknown error should not be a member")
	}
}

func TestRegistryNil(t *testing.T) {
	r := newRegistry()
	r.add(nil)
	if r.has(nil) {
		t.Error("nil should never be a member")
	}
}

type uncomparableError struct {
	parts []string
}

func (e uncomparableError) Error() string { return "uncomparable" }

func TestRegistryUncomparableError(t *testing.T) {
	r := newRegistry()
	e := uncomparableError{parts: []string{"x"}}
	r.add(e) // must not panic
	if r.has(e) {
		t.Error("uncomparable errors cannot be tracked by identity")
	}
}

func TestRegistryGrowsOnly(t *testing.T) {
	r := newRegistry()
	e1 := &chunk.LoadError{Chunk: "a"}
	e2 := &chunk.LoadError{Chunk: "b"}
	r.add(e1)
	r.add(e2)
	if !r.has(e1) || !r.has(e2) {
		t.Error("earlier entries must stay members as the registry grows")
	}
}
