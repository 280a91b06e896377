package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/quill/pkg/core"
)

// DefaultSystemDir is the hidden directory holding locks and other store state.
const DefaultSystemDir = ".quill"

// Repository implements core.Repository over a root directory where every
// non-hidden subdirectory is one entity.
type Repository struct {
	Path   string
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastEvent     *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool
	SystemDir string // e.g. ".quill"
	Logger    *slog.Logger
	// ErrorHandler receives runtime watcher failures that are otherwise only logged.
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{
		Path:   config.Path,
		config: config,
	}
}

// Initialize ensures the root exists and, unless read-only, creates the system directory.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("root path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create root directory: %w", err)
	}

	if r.config.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(r.Path, r.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}
	return nil
}

// ReadOnly reports whether mutating calls are rejected.
func (r *Repository) ReadOnly() bool {
	return r.config.ReadOnly
}

// SystemDir returns the name of the hidden system directory.
func (r *Repository) SystemDir() string {
	return r.config.SystemDir
}

// resolve maps a slash separated relative path to an absolute one, refusing
// anything that would escape the root.
func (r *Repository) resolve(rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("path %q is outside the root", rel)
	}
	return filepath.Join(r.Path, local), nil
}

func (r *Repository) read(rel string) ([]byte, bool, error) {
	full, err := r.resolve(rel)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return data, true, nil
}

// write creates the parent directories on demand and replaces the file atomically.
func (r *Repository) write(rel string, data []byte) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	full, err := r.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", rel, err)
	}
	if err := writeFileAtomic(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	r.config.Logger.Debug("file written", "path", rel, "bytes", len(data))
	return nil
}

// GetJSON decodes the JSON document at path into v.
func (r *Repository) GetJSON(ctx context.Context, path string, v any) (bool, error) {
	data, found, err := r.read(path)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%w: invalid json in %s: %w", core.ErrSectionCorrupt, path, err)
	}
	return true, nil
}

// PutJSON encodes v as indented JSON and writes it to path.
func (r *Repository) PutJSON(ctx context.Context, path string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return r.write(path, data)
}

// GetText returns the text stored at path.
func (r *Repository) GetText(ctx context.Context, path string) (string, bool, error) {
	data, found, err := r.read(path)
	if err != nil || !found {
		return "", false, err
	}
	return string(data), true, nil
}

// PutText writes text to path.
func (r *Repository) PutText(ctx context.Context, path string, text string) error {
	return r.write(path, []byte(text))
}

// GetBinary returns the bytes stored at path.
func (r *Repository) GetBinary(ctx context.Context, path string) ([]byte, bool, error) {
	return r.read(path)
}

// PutBinary writes data to path.
func (r *Repository) PutBinary(ctx context.Context, path string, data []byte) error {
	return r.write(path, data)
}

// FindBySuffix returns the first file in dir ending with one of suffixes.
// Suffixes are tried in order; within a suffix, files are tried in lexical order.
// Hidden files and directories never match.
func (r *Repository) FindBySuffix(ctx context.Context, dir string, suffixes []string) (string, bool, error) {
	full, err := r.resolve(dir)
	if err != nil {
		return "", false, err
	}

	entries, err := os.ReadDir(full) // sorted by filename
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	for _, suffix := range suffixes {
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			if strings.HasSuffix(name, suffix) {
				return filepath.Join(full, name), true, nil
			}
		}
	}
	return "", false, nil
}

// ListEntities returns the sorted names of the directories under the root,
// leaving out hidden ones and the system directory.
func (r *Repository) ListEntities(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list root: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == r.config.SystemDir {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether anything exists at path.
func (r *Repository) Exists(ctx context.Context, path string) (bool, error) {
	full, err := r.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// RemoveAll deletes the file or directory tree at path.
func (r *Repository) RemoveAll(ctx context.Context, path string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	full, err := r.resolve(path)
	if err != nil {
		return err
	}
	if full == filepath.Clean(r.Path) {
		return fmt.Errorf("refusing to remove the root")
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	r.config.Logger.Debug("path removed", "path", path)
	return nil
}

// Begin starts a staged write set.
func (r *Repository) Begin(ctx context.Context) (core.Batch, error) {
	if r.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	return NewBatch(r), nil
}

func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

var _ core.Repository = (*Repository)(nil)
