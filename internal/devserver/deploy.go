package devserver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-drift/keel/pkg/manifest"
)

// Deployment records one activated deployment.
type Deployment struct {
	// ID uniquely identifies this activation.
	ID string
	// Manifest is the deployment's chunk table.
	Manifest *manifest.Manifest
	// ActivatedAt is when the deployment went live.
	ActivatedAt time.Time
}

// Deployer packs dist directories into content-addressed deployments and
// tracks which one is active.
type Deployer struct {
	dist         string
	out          string
	basePath     string
	keepPrevious bool
	log          *slog.Logger

	mu      sync.RWMutex
	active  *Deployment
	history []*Deployment
}

// NewDeployer creates a deployer packing dist into out.
func NewDeployer(cfg DeployConfig, basePath string, log *slog.Logger) *Deployer {
	if log == nil {
		log = slog.Default()
	}
	return &Deployer{
		dist:         cfg.Dist,
		out:          cfg.Out,
		basePath:     basePath,
		keepPrevious: cfg.KeepPrevious,
		log:          log,
	}
}

// Active returns the live deployment, or nil before the first deploy.
func (d *Deployer) Active() *Deployment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// History returns all activations, oldest first.
func (d *Deployer) History() []*Deployment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Deployment(nil), d.history...)
}

// Deploy packs the dist directory under the given version and activates the
// result. Unless KeepPrevious is set, files of the previous deployment that
// the new one does not reference are deleted — from that moment, clients
// still running the old bundle get 404s for their chunks.
func (d *Deployer) Deploy(version string) (*Deployment, error) {
	if v := manifest.NormalizeVersion(version); v != "" {
		version = v
	}

	m, err := manifest.Pack(d.dist, d.out, version)
	if err != nil {
		return nil, fmt.Errorf("deploy failed: %w", err)
	}
	m.BasePath = d.basePath
	if err := m.Write(filepath.Join(d.out, "manifest.yaml")); err != nil {
		return nil, fmt.Errorf("deploy failed: %w", err)
	}

	dep := &Deployment{
		ID:          uuid.New().String(),
		Manifest:    m,
		ActivatedAt: time.Now(),
	}

	d.mu.Lock()
	previous := d.active
	d.active = dep
	d.history = append(d.history, dep)
	d.mu.Unlock()

	if previous != nil && !d.keepPrevious {
		d.prune(previous.Manifest, m)
	}

	d.log.Info("deployment activated",
		"id", dep.ID,
		"version", m.Version,
		"chunks", len(m.Chunks),
	)
	return dep, nil
}

// prune deletes files of the previous deployment that the current one does
// not reference.
func (d *Deployer) prune(previous, current *manifest.Manifest) {
	keep := make(map[string]bool, len(current.Chunks))
	for _, c := range current.Chunks {
		keep[c.File] = true
	}
	for name, c := range previous.Chunks {
		if keep[c.File] {
			continue
		}
		path := filepath.Join(d.out, filepath.FromSlash(c.File))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			d.log.Warn("failed to prune stale chunk", "chunk", name, "error", err)
			continue
		}
		d.log.Debug("pruned stale chunk", "chunk", name, "file", c.File)
	}
}

// NextVersion returns the patch-bumped successor of a deployment version.
// Unparseable versions restart at v0.1.0.
func NextVersion(version string) string {
	v := manifest.NormalizeVersion(version)
	if v == "" {
		return "v0.1.0"
	}
	base, _, _ := strings.Cut(v, "-")
	parts := strings.Split(strings.TrimPrefix(base, "v"), ".")
	if len(parts) != 3 {
		return "v0.1.0"
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "v0.1.0"
	}
	return fmt.Sprintf("v%s.%s.%d", parts[0], parts[1], patch+1)
}
