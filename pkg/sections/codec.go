package sections

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/quill/pkg/core"
)

// jsonEqual compares two values by their JSON encoding, which is what ends up
// on disk. Values that fail to encode are never equal.
func jsonEqual(a, b any) bool {
	x, err := json.Marshal(a)
	if err != nil {
		return false
	}
	y, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(x, y)
}

// changedJSON reports whether next carries a value that differs from current.
// A nil next was not provided and never counts as a change.
func changedJSON[T any](next, current *T) bool {
	if next == nil {
		return false
	}
	if current == nil {
		return true
	}
	return !jsonEqual(next, current)
}

// changedBytes is changedJSON for raw payloads; an empty slice was not provided.
func changedBytes(next, current []byte) bool {
	return len(next) > 0 && !bytes.Equal(next, current)
}

// getJSON reads the document at path, returning nil when it does not exist.
func getJSON[T any](ctx context.Context, repo core.Repository, path string) (*T, error) {
	var v T
	found, err := repo.GetJSON(ctx, path, &v)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &v, nil
}

func sectionError(entity, section, path string, err error) error {
	var se *core.SectionError
	if errors.As(err, &se) {
		return err
	}
	return &core.SectionError{Entity: entity, Section: section, Path: path, Err: err}
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrVersionMismatch, fmt.Sprintf(format, args...))
}

// writeSet collects the writes of one save into a single batch. The first
// staging error sticks and is reported by commit.
type writeSet struct {
	batch core.Batch
	err   error
}

func begin(ctx context.Context, repo core.Repository) (*writeSet, error) {
	b, err := repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &writeSet{batch: b}, nil
}

func (w *writeSet) json(path string, v any) {
	if w.err == nil {
		w.err = w.batch.PutJSON(path, v)
	}
}

func (w *writeSet) text(path, text string) {
	if w.err == nil {
		w.err = w.batch.PutText(path, text)
	}
}

func (w *writeSet) binary(path string, data []byte) {
	if w.err == nil {
		w.err = w.batch.PutBinary(path, data)
	}
}

func (w *writeSet) commit(ctx context.Context) error {
	if w.err != nil {
		_ = w.batch.Rollback(ctx)
		return w.err
	}
	if w.batch.Len() == 0 {
		return w.batch.Rollback(ctx)
	}
	return w.batch.Commit(ctx)
}
