package core

import "context"

// Repository is the path-scoped storage contract the sections are written against.
// Paths are slash separated and relative to the root. A missing file is reported
// through the found flag, never as an error.
type Repository interface {
	// GetJSON decodes the document at path into v. A document that exists but
	// does not decode fails with ErrSectionCorrupt.
	GetJSON(ctx context.Context, path string, v any) (found bool, err error)
	PutJSON(ctx context.Context, path string, v any) error

	GetText(ctx context.Context, path string) (string, bool, error)
	PutText(ctx context.Context, path string, text string) error

	GetBinary(ctx context.Context, path string) ([]byte, bool, error)
	PutBinary(ctx context.Context, path string, data []byte) error

	// FindBySuffix returns the absolute path of the first file in dir whose name
	// ends with one of suffixes, trying suffixes in order.
	FindBySuffix(ctx context.Context, dir string, suffixes []string) (string, bool, error)

	// ListEntities returns the sorted, non-hidden entity names.
	ListEntities(ctx context.Context) ([]string, error)

	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// RemoveAll deletes the file or subtree at path. Missing targets are not an error.
	RemoveAll(ctx context.Context, path string) error

	// Begin starts a staged write set.
	Begin(ctx context.Context) (Batch, error)
}

// Batch stages writes and applies them together.
// Nothing is visible at the target paths before Commit.
type Batch interface {
	PutJSON(path string, v any) error
	PutText(path string, text string) error
	PutBinary(path string, data []byte) error
	// Len returns the number of staged writes.
	Len() int
	// Commit applies the staged writes in staging order.
	Commit(ctx context.Context) error
	// Rollback discards the staged writes.
	Rollback(ctx context.Context) error
}

// Watchable is implemented by repositories that can report changes under the root.
type Watchable interface {
	// Watch streams events for files whose root-relative path matches pattern.
	// Section is left empty; the service resolves it.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Locker provides cross-process exclusion per entity.
type Locker interface {
	// Lock blocks until the lock for entity is held or ctx is done.
	Lock(ctx context.Context, entity string) (unlock func(), err error)
}

// Section persists one independently serialized part of a record.
type Section interface {
	// Name identifies the section in logs, errors and events.
	Name() string
	// Fill reads the section from disk into rec.
	Fill(ctx context.Context, entity string, rec *Record) error
	// Save re-reads the stored section and writes the fields of rec that differ.
	Save(ctx context.Context, entity string, rec Record) error
	// Changed reports whether next carries a value for this section that differs from current.
	Changed(next, current Record) bool
	// Reset deletes everything the section stores for entity.
	Reset(ctx context.Context, entity string) error
	// Owns reports whether a path relative to the entity directory belongs to this section.
	Owns(rel string) bool
}

// VersionedSection is implemented by sections that keep an attribute history.
type VersionedSection interface {
	Section
	Version(ctx context.Context, entity, attr string) (int, error)
	History(ctx context.Context, entity, attr string) ([]Version, error)
	ReadVersion(ctx context.Context, entity, attr string, n int) (string, bool, error)
}
