package devserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events (editors write several
// files per save) into one redeploy.
const watchDebounce = 300 * time.Millisecond

// Watcher redeploys whenever the dist directory changes.
type Watcher struct {
	dist     string
	deployer *Deployer
	metrics  *Metrics
	log      *slog.Logger
}

// NewWatcher creates a watcher that redeploys from dist on change.
func NewWatcher(dist string, deployer *Deployer, metrics *Metrics, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		dist:     dist,
		deployer: deployer,
		metrics:  metrics,
		log:      log,
	}
}

// Run watches until ctx is cancelled. Each settled burst of changes triggers
// one deploy with a patch-bumped version.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.dist); err != nil {
		return err
	}
	w.log.Info("watching for changes", "dir", w.dist)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			// New subdirectories need to be watched too.
			if event.Op.Has(fsnotify.Create) {
				_ = addRecursive(fsw, event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-pending:
			pending = nil
			w.redeploy()
		}
	}
}

func (w *Watcher) redeploy() {
	version := "v0.1.0"
	if active := w.deployer.Active(); active != nil {
		version = NextVersion(active.Manifest.Version)
	}

	dep, err := w.deployer.Deploy(version)
	if err != nil {
		w.log.Error("redeploy failed", "error", err)
		return
	}
	if w.metrics != nil {
		w.metrics.Deploys.Inc()
	}
	w.log.Info("redeployed", "version", dep.Manifest.Version, "id", dep.ID)
}

// relevant filters events to ones that change served content.
func relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
}

// addRecursive watches dir and every subdirectory under it.
func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	matches := []string{dir}
	for len(matches) > 0 {
		d := matches[0]
		matches = matches[1:]
		if err := fsw.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
		entries, err := filepath.Glob(filepath.Join(d, "*"))
		if err != nil {
			return err
		}
		for _, e := range entries {
			if info, err := os.Stat(e); err == nil && info.IsDir() {
				matches = append(matches, e)
			}
		}
	}
	return nil
}
