package platform

import (
	"context"
	"path/filepath"

	"github.com/aretw0/quill/pkg/adapters/fs"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/sections"
)

// MarkerPath returns the path of the quill.yaml marker of root.
func MarkerPath(root string) string {
	return filepath.Join(root, MarkerFile)
}

// New builds the store at root:
//
//	svc, err := platform.New("./interviews", platform.WithAutoInit(true))
func New(root string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := initRepository(root, o)
	if err != nil {
		return nil, err
	}

	build := sections.Default
	if o.sections != nil {
		build = o.sections
	}

	config := core.Config{Logger: o.logger}
	if fsRepo, ok := repo.(*fs.Repository); ok && o.entityLocks && !o.readOnly {
		locker := fs.NewLocker(fsRepo)
		locker.StaleAfter = o.lockStale
		config.Locker = locker
	}

	return core.NewService(repo, build(repo), config), nil
}

// Init prepares the root and returns the repository without building a service.
func Init(root string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(root, o)
}

func initRepository(root string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	// Read-only runs are inherently safe and always use the real path.
	useTemp := o.forceTemp || (IsDevRun() && o.devSafety && !o.readOnly)
	resolved := ResolveRoot(root, useTemp)

	if o.logger != nil && useTemp && resolved != filepath.Clean(root) {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", root, "resolved_path", resolved)
	}

	systemDir := o.systemDir
	if systemDir == "" {
		systemDir = DefaultSystemDir
	}

	repo := fs.NewRepository(fs.Config{
		Path:         resolved,
		MustExist:    o.mustExist || (!o.autoInit && !useTemp),
		ReadOnly:     o.readOnly,
		SystemDir:    systemDir,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}

	if o.autoInit && !o.readOnly {
		cfg := DefaultConfig()
		cfg.SystemDir = systemDir
		cfg.Locks = o.entityLocks
		if err := writeMarker(resolved, cfg); err != nil {
			return nil, err
		}
	}
	return repo, nil
}
