// Package chunk loads the independently fetchable code chunks of a deployed
// application.
//
// Chunk filenames are content-addressed (see package manifest), so a chunk
// that loaded yesterday may be a 404 today: a newer deployment replaced the
// assets and the old filenames are gone. The loader does not try to hide
// that. Failures are returned to the caller unchanged AND broadcast on
// [Loader.Failures], which is what the recovery mechanism in package
// recovery correlates against.
package chunk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-drift/keel/pkg/manifest"
)

// Chunk is a loaded asset.
type Chunk struct {
	// Name is the logical chunk name.
	Name string
	// Data is the chunk content.
	Data []byte
	// MIME is the served content type.
	MIME string
}

// Loader fetches chunks by logical name through a deployment manifest.
//
// Loaded chunks are cached for the lifetime of the loader; a chunk-split
// client never re-fetches a chunk it already holds, which is also why a
// stale client cannot self-heal without a full reload.
type Loader struct {
	manifest *manifest.Manifest
	baseURL  string
	client   *http.Client
	failures *Stream[*LoadError]

	mu    sync.Mutex
	cache map[string]*Chunk
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) { l.client = client }
}

// NewLoader creates a loader fetching assets relative to baseURL.
func NewLoader(m *manifest.Manifest, baseURL string, opts ...LoaderOption) *Loader {
	l := &Loader{
		manifest: m,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
		failures: NewStream[*LoadError](),
		cache:    make(map[string]*Chunk),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Manifest returns the deployment manifest the loader resolves against.
func (l *Loader) Manifest() *manifest.Manifest {
	return l.manifest
}

// Failures is the loader's failure broadcast. Subscribing never alters
// delivery to the Load caller: the same error instance goes both ways.
func (l *Loader) Failures() *Stream[*LoadError] {
	return l.failures
}

// Load fetches the chunk with the given logical name.
//
// The fetched content is checked against the manifest: HTTP status,
// content type, and SHA256 integrity. Results are cached by name.
func (l *Loader) Load(ctx context.Context, name string) (*Chunk, error) {
	l.mu.Lock()
	if c, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return c, nil
	}
	l.mu.Unlock()

	ref, ok := l.manifest.Lookup(name)
	if !ok {
		return nil, l.fail(&LoadError{Chunk: name, Reason: ReasonNoSuchChunk})
	}

	url := l.baseURL + "/" + ref.File
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, l.fail(&LoadError{Chunk: name, URL: url, Reason: ReasonFetch, Err: err})
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, l.fail(&LoadError{Chunk: name, URL: url, Reason: ReasonFetch, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, l.fail(&LoadError{Chunk: name, URL: url, Reason: ReasonStatus, Status: resp.StatusCode})
	}

	served := resp.Header.Get("Content-Type")
	if ref.MIME != "" && !sameMediaType(served, ref.MIME) {
		return nil, l.fail(&LoadError{
			Chunk:  name,
			URL:    url,
			Reason: ReasonMIME,
			Err:    fmt.Errorf("got %q, want %q", served, ref.MIME),
		})
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, l.fail(&LoadError{Chunk: name, URL: url, Reason: ReasonFetch, Err: err})
	}

	if ref.Integrity != "" {
		digest := sha256.Sum256(data)
		if hex.EncodeToString(digest[:]) != ref.Integrity {
			return nil, l.fail(&LoadError{Chunk: name, URL: url, Reason: ReasonIntegrity})
		}
	}

	c := &Chunk{Name: name, Data: data, MIME: served}
	l.mu.Lock()
	l.cache[name] = c
	l.mu.Unlock()
	return c, nil
}

// fail publishes the error and returns it. The returned error is the exact
// value subscribers saw; callers and subscribers correlate by identity.
func (l *Loader) fail(e *LoadError) error {
	l.failures.Publish(e)
	return e
}

func sameMediaType(got, want string) bool {
	gotType, _, err := mime.ParseMediaType(got)
	if err != nil {
		return false
	}
	wantType, _, err := mime.ParseMediaType(want)
	if err != nil {
		return false
	}
	return gotType == wantType
}
