package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/quill/pkg/core"
)

// options holds the internal configuration for the store.
type options struct {
	repository   core.Repository
	sections     func(core.Repository) []core.Section
	logger       *slog.Logger
	autoInit     bool
	mustExist    bool
	readOnly     bool
	systemDir    string
	entityLocks  bool
	lockStale    time.Duration
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)
}

// Option defines a functional option for configuring the store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		entityLocks: true,
		devSafety:   true,
	}
}

// WithAutoInit creates the root and writes the quill.yaml marker when they are missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithMustExist ensures the root directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Saves, resets and attribute writes return ErrReadOnly.
// 2. Initialization (Mkdir, marker) is skipped.
// 3. No lock files are taken.
// 4. Dev Safety Lock (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithLogger sets the logger for the service and the repository.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSystemDir sets the hidden directory holding lock files (default ".quill").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithEntityLocks toggles the cross-process lock files taken around every write.
// Enabled by default; the in-process entity lock is always on.
func WithEntityLocks(enabled bool) Option {
	return func(o *options) {
		o.entityLocks = enabled
	}
}

// WithLockStaleAfter treats lock files older than d as abandoned, on top of
// the owner check. Zero disables the age check.
func WithLockStaleAfter(d time.Duration) Option {
	return func(o *options) {
		o.lockStale = d
	}
}

// WithRepository allows injecting a custom storage adapter (e.g. mock, s3).
// If provided, the default filesystem adapter will be skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithSections replaces the default sections. The builder receives the repository in use.
func WithSections(build func(core.Repository) []core.Section) Option {
	return func(o *options) {
		o.sections = build
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the "Sandbox" safety mechanism when running via `go run`.
// By default (true), the store is re-rooted into a temporary directory to prevent
// accidental writes to real records during development.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler registers a callback for errors occurring during the Watch loop,
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
