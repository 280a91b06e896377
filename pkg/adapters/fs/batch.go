package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/quill/pkg/core"
)

type stagedWrite struct {
	path string
	data []byte
}

// Batch implements core.Batch for the filesystem.
//
// Commit runs in two phases. Every payload is first written and synced to a
// temp file beside its target. The temps are then renamed over the targets in
// staging order. A failure in the first phase leaves the targets untouched; a
// failure in the second leaves a prefix of the staged writes applied.
type Batch struct {
	repo   *Repository
	staged []stagedWrite
	mu     sync.Mutex
	closed bool
}

// NewBatch creates an empty batch over repo.
func NewBatch(repo *Repository) *Batch {
	return &Batch{repo: repo}
}

func (b *Batch) stage(path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("batch closed")
	}
	if _, err := b.repo.resolve(path); err != nil {
		return err
	}

	// A later write to the same path replaces the earlier one but keeps its slot.
	for i := range b.staged {
		if b.staged[i].path == path {
			b.staged[i].data = data
			return nil
		}
	}
	b.staged = append(b.staged, stagedWrite{path: path, data: data})
	return nil
}

// PutJSON stages v encoded as indented JSON.
func (b *Batch) PutJSON(path string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return b.stage(path, data)
}

// PutText stages text.
func (b *Batch) PutText(path string, text string) error {
	return b.stage(path, []byte(text))
}

// PutBinary stages data.
func (b *Batch) PutBinary(path string, data []byte) error {
	return b.stage(path, data)
}

// Len returns the number of staged writes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.staged)
}

// Commit applies all staged writes.
func (b *Batch) Commit(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("batch already closed")
	}
	b.closed = true

	if b.repo.config.ReadOnly {
		return core.ErrReadOnly
	}

	// 1. Stage every payload next to its target.
	temps := make([]string, 0, len(b.staged))
	cleanup := func() {
		for _, t := range temps {
			os.Remove(t)
		}
	}

	for _, w := range b.staged {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		full, _ := b.repo.resolve(w.path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			cleanup()
			return fmt.Errorf("failed to create directories for %s: %w", w.path, err)
		}
		tmp, err := createTemp(full, w.data, 0644)
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to stage %s: %w", w.path, err)
		}
		temps = append(temps, tmp)
	}

	// 2. Publish in order.
	for i, w := range b.staged {
		full, _ := b.repo.resolve(w.path)
		if err := os.Rename(temps[i], full); err != nil {
			temps = temps[i:]
			cleanup()
			return fmt.Errorf("failed to publish %s after %d of %d writes: %w", w.path, i, len(b.staged), err)
		}
		b.repo.config.Logger.Debug("file written", "path", w.path, "bytes", len(w.data))
	}

	b.staged = nil
	return nil
}

// Rollback discards all staged writes.
func (b *Batch) Rollback(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.staged = nil
	b.closed = true
	return nil
}

var _ core.Batch = (*Batch)(nil)
