package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-drift/keel/pkg/manifest"
)

// Server serves the active deployment the way production chunk hosting does:
// manifest.yaml plus content-addressed assets under the base path, with an
// entry-document fallback for application routes. A chunk file that the
// active deployment no longer references is a plain 404, which is exactly
// what a stale client sees after a deploy.
type Server struct {
	cfg      ServerConfig
	deployer *Deployer
	metrics  *Metrics
	log      *slog.Logger
	srv      *http.Server
}

// NewServer creates a server for the deployer's active deployment.
func NewServer(cfg ServerConfig, deployer *Deployer, metrics *Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		deployer: deployer,
		metrics:  metrics,
		log:      log,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/", s.serve)

	s.srv = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dev server listening", "addr", s.srv.Addr, "base_path", s.cfg.BasePath)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dev server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dev server shutdown failed: %w", err)
	}
	return nil
}

// Handler exposes the server's routing for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	dep := s.deployer.Active()
	if dep == nil {
		http.Error(w, "no active deployment", http.StatusServiceUnavailable)
		return
	}

	rel, ok := s.stripBasePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case rel == "manifest.yaml":
		s.serveManifest(w, dep.Manifest)
	case path.Ext(rel) != "":
		s.serveAsset(w, r, dep.Manifest, rel)
	default:
		// Application route: serve the entry document so a fresh client
		// can boot and resolve the path itself.
		s.serveEntry(w, r, dep.Manifest)
	}
}

// stripBasePath removes the configured base path prefix, returning the
// deployment-relative path.
func (s *Server) stripBasePath(p string) (string, bool) {
	base := s.cfg.BasePath
	if base == "" {
		base = "/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if p == strings.TrimSuffix(base, "/") {
		return "", true
	}
	if !strings.HasPrefix(p, base) {
		return "", false
	}
	return strings.TrimPrefix(p, base), true
}

func (s *Server) serveManifest(w http.ResponseWriter, m *manifest.Manifest) {
	data, err := m.Encode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, m *manifest.Manifest, rel string) {
	chunk, ok := lookupByFile(m, rel)
	if !ok {
		// Content-addressed name from a previous deployment, or garbage.
		s.metrics.ChunkMisses.Inc()
		s.metrics.ChunkRequests.WithLabelValues("404").Inc()
		s.log.Debug("chunk miss", "file", rel)
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.deployer.out, filepath.FromSlash(rel)))
	if err != nil {
		s.metrics.ChunkRequests.WithLabelValues("500").Inc()
		http.Error(w, "failed to read chunk", http.StatusInternalServerError)
		return
	}

	s.metrics.ChunkRequests.WithLabelValues("200").Inc()
	w.Header().Set("Content-Type", chunk.MIME)
	// Content-addressed files never change; cache them forever.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}

func (s *Server) serveEntry(w http.ResponseWriter, r *http.Request, m *manifest.Manifest) {
	chunk, ok := m.Lookup("index")
	if !ok {
		http.Error(w, "deployment has no entry document", http.StatusNotFound)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.deployer.out, filepath.FromSlash(chunk.File)))
	if err != nil {
		http.Error(w, "failed to read entry document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", chunk.MIME)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// lookupByFile finds the chunk served under a content-addressed filename.
func lookupByFile(m *manifest.Manifest, file string) (manifest.Chunk, bool) {
	for _, c := range m.Chunks {
		if c.File == file {
			return c, true
		}
	}
	return manifest.Chunk{}, false
}
