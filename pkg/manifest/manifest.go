// Package manifest describes a deployment of a chunk-split application.
//
// A deployment is a main entry document plus a set of independently
// fetchable chunks. Chunk filenames are content-addressed: the name carries
// a digest of the content, so a chunk file exists on the server only for as
// long as the deployment that produced it. The manifest maps stable logical
// chunk names to the current deployment's filenames.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Chunk describes one fetchable asset of a deployment.
type Chunk struct {
	// File is the content-addressed filename, relative to the deployment
	// base path (e.g., "settings.3c9d2f81a4b0.wasm").
	File string `yaml:"file"`

	// Integrity is the hex-encoded SHA256 digest of the file content.
	Integrity string `yaml:"integrity"`

	// MIME is the content type the server is expected to serve.
	MIME string `yaml:"mime"`
}

// Manifest is the chunk table of a single deployment.
type Manifest struct {
	// Version identifies the deployment (e.g., "v1.4.0").
	Version string `yaml:"version"`

	// BasePath is the path prefix the deployment is served under
	// (e.g., "/app/"). Optional; defaults to "/".
	BasePath string `yaml:"base_path,omitempty"`

	// Chunks maps logical chunk names to their current assets.
	Chunks map[string]Chunk `yaml:"chunks"`
}

// Parse decodes a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Chunks == nil {
		m.Chunks = make(map[string]Chunk)
	}
	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Encode serializes the manifest as YAML.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// Write serializes the manifest to path.
func (m *Manifest) Write(path string) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Lookup returns the chunk for a logical name.
func (m *Manifest) Lookup(name string) (Chunk, bool) {
	c, ok := m.Chunks[name]
	return c, ok
}
