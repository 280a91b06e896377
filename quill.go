package quill

import (
	"log/slog"

	"github.com/aretw0/quill/internal/platform"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/editor"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Types ---

// Record is the aggregate of everything stored for one entity.
type Record = core.Record

// Service is the record store.
type Service = core.Service

// Event is a change observed under the root.
type Event = core.Event

// Editor runs the generation workflow on top of a Service.
type Editor = editor.Editor

// EditorConfig holds the collaborators of an Editor.
type EditorConfig = editor.Config

// Config is the content of quill.yaml.
type Config = platform.Config

// Generated text attributes.
const (
	AttrStructure   = core.AttrStructure
	AttrContent     = core.AttrContent
	AttrTitle       = core.AttrTitle
	AttrDescription = core.AttrDescription
	AttrLinkedin    = core.AttrLinkedin
)

// MarkerFile is the configuration file marking a store root.
const MarkerFile = platform.MarkerFile

// ErrRootNotFound is returned by FindRoot when no store encloses the start directory.
var ErrRootNotFound = platform.ErrRootNotFound

// --- Configuration ---

// Option defines a functional option for configuring the store.
type Option = platform.Option

// WithAutoInit creates the root and writes quill.yaml when they are missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist ensures the root directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every write and skips initialization.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the re-rooting of `go run` processes into a temporary directory.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithSections replaces the default sections.
func WithSections(build func(core.Repository) []core.Section) Option {
	return platform.WithSections(build)
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".quill").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithEntityLocks toggles the cross-process lock files.
func WithEntityLocks(enabled bool) Option {
	return platform.WithEntityLocks(enabled)
}

// WithWatcherErrorHandler registers a callback for runtime watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a new record store.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a repository explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// NewEditor creates an Editor over svc.
func NewEditor(svc *core.Service, config EditorConfig) *editor.Editor {
	return editor.New(svc, config)
}

// --- Configuration Files ---

// DefaultConfig returns the configuration written by Init.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// LoadConfig reads the quill.yaml at path and applies the QUILL_* environment on top.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// MarkerPath returns the path of the quill.yaml of root.
func MarkerPath(root string) string {
	return platform.MarkerPath(root)
}

// --- Safety & Utils ---

// ResolveRoot determines the actual root based on safety rules.
func ResolveRoot(userPath string, forceTemp bool) string {
	return platform.ResolveRoot(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards from startDir for a quill.yaml or system directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
