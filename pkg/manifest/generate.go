package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// shortDigestLen is the number of hex digits embedded in a filename.
const shortDigestLen = 12

// mimeByExt maps asset extensions to the content type the server must serve.
var mimeByExt = map[string]string{
	".wasm": "application/wasm",
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".css":  "text/css",
	".json": "application/json",
	".html": "text/html",
}

// Generate walks a built output directory and produces the manifest for it.
// Each regular file becomes a chunk: the logical name is the slash-separated
// relative path without extension, and the file name gains a short content
// digest before the extension.
//
// When several assets share a stem ("index.html" next to "index.js"), the
// HTML entry document keeps the bare stem and the rest keep their extension
// in the logical name, so a dist directory never silently loses a chunk.
//
// Generate does not copy or rename anything; see [Pack] for that.
func Generate(dir, version string) (*Manifest, error) {
	type asset struct {
		rel    string
		digest string
	}
	var assets []asset
	stems := make(map[string]int)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || d.Name() == "manifest.yaml" {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		digest, err := hashFile(path)
		if err != nil {
			return err
		}

		assets = append(assets, asset{rel: rel, digest: digest})
		stems[strings.TrimSuffix(rel, filepath.Ext(rel))]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate manifest: %w", err)
	}

	m := &Manifest{
		Version: version,
		Chunks:  make(map[string]Chunk, len(assets)),
	}
	for _, a := range assets {
		name := chunkName(a.rel, stems)
		if prev, ok := m.Chunks[name]; ok {
			return nil, fmt.Errorf("chunk name %q is ambiguous: %s and %s", name, sourcePath(prev), a.rel)
		}
		m.Chunks[name] = Chunk{
			File:      addressedFile(a.rel, a.digest),
			Integrity: a.digest,
			MIME:      mimeForFile(a.rel),
		}
	}
	return m, nil
}

// Pack generates a manifest for srcDir and writes the deployment into
// outDir: every asset copied under its content-addressed name, plus
// manifest.yaml. outDir is created if needed.
func Pack(srcDir, outDir, version string) (*Manifest, error) {
	m, err := Generate(srcDir, version)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, chunk := range m.Chunks {
		src := filepath.Join(srcDir, sourcePath(chunk))
		dst := filepath.Join(outDir, filepath.FromSlash(chunk.File))
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
	}

	if err := m.Write(filepath.Join(outDir, "manifest.yaml")); err != nil {
		return nil, err
	}
	return m, nil
}

// chunkName derives the logical chunk name for an asset. The extension is
// stripped when the stem is unambiguous; otherwise the entry document keeps
// the bare stem and everything else keeps its extension.
func chunkName(rel string, stems map[string]int) string {
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	if stems[stem] == 1 || ext == ".html" {
		return stem
	}
	return rel
}

// addressedFile inserts a short content digest before the extension.
func addressedFile(rel, digest string) string {
	ext := filepath.Ext(rel)
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(rel, ext), digest[:shortDigestLen], ext)
}

// sourcePath reconstructs the original asset path from a chunk entry by
// dropping the digest segment of the addressed filename.
func sourcePath(chunk Chunk) string {
	ext := filepath.Ext(chunk.File)
	stem := strings.TrimSuffix(chunk.File, ext)
	stem = strings.TrimSuffix(stem, "."+chunk.Integrity[:shortDigestLen])
	return filepath.FromSlash(stem + ext)
}

func mimeForFile(path string) string {
	if mime, ok := mimeByExt[filepath.Ext(path)]; ok {
		return mime
	}
	return "application/octet-stream"
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for digest: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read file for digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
