// Package buildfs is the abstract filesystem boundary the plan assembler
// writes synthesized files through (module maps, resource accessors,
// link-file-lists, output file maps). Keeping it as an interface rather
// than calling os.WriteFile directly lets the engine's tests substitute an
// in-memory implementation, and lets a future embedder wire it to a
// content-addressed build cache without touching assembly logic.
package buildfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	digest "github.com/opencontainers/go-digest"
)

// FS is the minimal read/write surface the engine needs from the data path.
// It intentionally excludes directory walking: source-file discovery on
// disk is an external collaborator's job (spec.md §1), never the engine's.
type FS interface {
	// ReadFile reads the named file's full contents. It returns an error
	// satisfying os.IsNotExist when the file does not exist.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile writes data to the named file, creating parent directories
	// as needed.
	WriteFile(ctx context.Context, path string, data []byte) error
}

// WriteIfChanged writes data to path only when the file does not already
// exist with identical contents, implementing the idempotent-write rule in
// spec.md §5. The existing file is read in full and its digest compared with
// the digest of data.
func WriteIfChanged(ctx context.Context, fsys FS, path string, data []byte) (wrote bool, err error) {
	existing, err := fsys.ReadFile(ctx, path)
	if err == nil && digest.FromBytes(existing) == digest.FromBytes(data) {
		return false, nil
	}
	if err := fsys.WriteFile(ctx, path, data); err != nil {
		return false, err
	}
	return true, nil
}

// MemFS is a trivial in-memory FS used by tests and by callers that want to
// inspect synthesized output without touching disk.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	b, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("buildfs: %s: %w", path, fs.ErrNotExist)
	}
	return b, nil
}

func (m *MemFS) WriteFile(_ context.Context, path string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.files[path] = cp
	return nil
}

// Digest returns the content digest for a file previously written, or the
// empty digest if the file is absent.
func (m *MemFS) Digest(path string) digest.Digest {
	b, ok := m.files[path]
	if !ok {
		return ""
	}
	return digest.FromBytes(b)
}

// DiskFS writes through to the real filesystem, creating parent directories
// as needed. Used by the CLI entrypoints; tests use MemFS instead to avoid
// touching disk.
type DiskFS struct{}

func (DiskFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (DiskFS) WriteFile(_ context.Context, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
